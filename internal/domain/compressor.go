package domain

type ArchiveVerifier interface {
	Verify(path string) error
}
