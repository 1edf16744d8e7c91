package models

// IdentifierRecord is one anonymat number attributed to a licence tag
// (tag = source file name without extension, uppercased).
type IdentifierRecord struct {
	Numero  int    `json:"numero"`
	Licence string `json:"licence"`
}

// LicenceCollision is a numero seen more than once inside one output bucket.
// Collisions are reported, never rejected.
type LicenceCollision struct {
	Numero   int      `json:"numero"`
	Licences []string `json:"licences"`
}

// LicenceFileStats counts how one input file contributed to each bucket.
type LicenceFileStats struct {
	Licence string `json:"licence"`
	Total   int    `json:"total"`
	Bucket17 int   `json:"bucket_17"`
	Bucket9  int   `json:"bucket_9"`
}

// LicencePartition is the full output of the partition engine: the two
// buckets (numbers starting with 1 or 7, and numbers starting with 9),
// sorted by (licence, numero), plus per-file statistics and collisions.
type LicencePartition struct {
	Bucket17   []IdentifierRecord `json:"bucket_17"`
	Bucket9    []IdentifierRecord `json:"bucket_9"`
	Stats      []LicenceFileStats `json:"stats"`
	Collisions []LicenceCollision `json:"collisions"`
}

// AccountEntry is one anonymat/email pair destined for the Moodle user
// import CSV.
type AccountEntry struct {
	Anonymat string `json:"anonymat"`
	Email    string `json:"email"`
}
