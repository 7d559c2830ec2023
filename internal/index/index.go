package index

// Ledger defines the interface for validation status bookkeeping.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Ledger interface {
	RecordDocument(r DocumentRow) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	GetDocument(path string) (*DocumentRow, error)
	AllChecksums() (map[string]string, error)
	ListDocuments(onlyInvalid bool) ([]DocumentRow, error)
	RecordRun(r RunRow) error
	LatestRun() (*RunRow, error)
	Close() error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)
