package types

// Request and response bodies for the JSON API. Addresses, handles,
// keys, and signatures travel as 0x-prefixed hex; parsing and
// validation happen at the API boundary so the service layer only
// ever sees typed values.

type MintRequest struct {
	Submitter string   `json:"submitter"`
	Owner     string   `json:"owner"`
	Handles   []string `json:"handles"`
	Proof     string   `json:"proof"`
}

type MintResponse struct {
	OK         bool   `json:"ok"`
	RecordID   uint64 `json:"record_id"`
	Owner      string `json:"owner"`
	ServerTime string `json:"server_time"`
}

type GrantRequest struct {
	Caller   string `json:"caller"`
	RecordID uint64 `json:"record_id"`
	Slot     string `json:"slot"`
	Grantee  string `json:"grantee"`
}

type GrantResponse struct {
	OK         bool   `json:"ok"`
	RecordID   uint64 `json:"record_id"`
	Slot       string `json:"slot"`
	Grantee    string `json:"grantee"`
	ServerTime string `json:"server_time"`
}

type RecordResponse struct {
	OK        bool              `json:"ok"`
	RecordID  uint64            `json:"record_id"`
	Owner     string            `json:"owner"`
	CreatedAt string            `json:"created_at"`
	Handles   map[string]string `json:"handles"`
}

type HandleResponse struct {
	OK       bool   `json:"ok"`
	RecordID uint64 `json:"record_id"`
	Slot     string `json:"slot"`
	Handle   string `json:"handle"`
}

type StatsResponse struct {
	OK          bool   `json:"ok"`
	RecordCount uint64 `json:"record_count"`
	ServerTime  string `json:"server_time"`
}

type HandlePair struct {
	Handle   string `json:"handle"`
	Contract string `json:"contract"`
}

type DecryptRequest struct {
	Requester       string       `json:"requester"`
	Pairs           []HandlePair `json:"pairs"`
	Contracts       []string     `json:"contracts"`
	EphemeralKey    string       `json:"ephemeral_key"`
	StartUnix       int64        `json:"start_unix"`
	DurationSeconds int64        `json:"duration_s"`
	Signature       string       `json:"signature"`
}

type Ticket struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Sealed string `json:"sealed"`
}

type DecryptResponse struct {
	OK         bool              `json:"ok"`
	Tickets    map[string]Ticket `json:"tickets"`
	ServerTime string            `json:"server_time"`
}

type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
