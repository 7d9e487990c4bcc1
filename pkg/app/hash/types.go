package hash

// Mode selects the hash function applied to each name
type Mode string

const (
	// ModeDirent is the directory key a dirent is stored under.
	ModeDirent Mode = "dirhash"
	// ModeData is the xxhash64 of the 1 KiB extended directory record.
	ModeData Mode = "dhash"
)

// Request represents a name hashing request
type Request struct {
	Names []string
	Mode  Mode
}

// Response represents hashed names in request order
type Response struct {
	Mode    Mode    `json:"mode" yaml:"mode"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Entry is the hash of one name
type Entry struct {
	Name string `json:"name" yaml:"name"`
	Hash uint64 `json:"hash" yaml:"hash"`
}
