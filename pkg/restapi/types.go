package restapi

// WriteRequest is the body of a write.
type WriteRequest struct {
	// Tag is stored as its UTF-8 bytes.
	Tag string `json:"tag"`
	// Payload is hex encoded with 0x prefix.
	Payload string `json:"payload"`
	// Address is the bech32 address the output is locked to. Empty locks it to the sender.
	Address     string `json:"address,omitempty"`
	SenderIndex uint32 `json:"senderIndex,omitempty"`
	// Expiration and Timelock are durations like "10m".
	Expiration string `json:"expiration,omitempty"`
	Timelock   string `json:"timelock,omitempty"`
}

// WriteResponse acknowledges a write.
type WriteResponse struct {
	OutputID      string `json:"outputId"`
	TransactionID string `json:"transactionId"`
	BlockID       string `json:"blockId"`
	Included      bool   `json:"included"`
	DurationMs    int64  `json:"durationMs"`
	BlockLink     string `json:"blockLink,omitempty"`
}

// OutputIDsResponse lists the ids of the outputs carrying a tag.
type OutputIDsResponse struct {
	Tag       string   `json:"tag"`
	OutputIDs []string `json:"outputIds"`
}

// OutputResponse is a data output.
type OutputResponse struct {
	OutputID string `json:"outputId"`
	Tag      string `json:"tag"`
	Payload  string `json:"payload"`
	Address  string `json:"address,omitempty"`
	Spent    bool   `json:"spent"`
}

// AccountResponse summarizes the account.
type AccountResponse struct {
	Alias     string   `json:"alias"`
	Addresses []string `json:"addresses"`
	OutputIDs []string `json:"outputIds"`
	Balance   string   `json:"balance"`
}

// AddressResponse is a newly generated address of the account.
type AddressResponse struct {
	Index   uint32 `json:"index"`
	Address string `json:"address"`
}

// AnchorWriteRequest is the body of an anchor write.
type AnchorWriteRequest struct {
	// Payload is hex encoded with 0x prefix.
	Payload string `json:"payload"`
	// SenderIndex selects the state controller of a new anchor.
	SenderIndex uint32 `json:"senderIndex,omitempty"`
}

// AnchorWriteResponse acknowledges an anchor write.
type AnchorWriteResponse struct {
	AnchorID      string `json:"anchorId"`
	OutputID      string `json:"outputId"`
	TransactionID string `json:"transactionId"`
	BlockID       string `json:"blockId"`
	StateIndex    uint32 `json:"stateIndex"`
	Included      bool   `json:"included"`
	DurationMs    int64  `json:"durationMs"`
}

// AnchorResponse is the current state of an anchor.
type AnchorResponse struct {
	AnchorID   string `json:"anchorId"`
	OutputID   string `json:"outputId"`
	StateIndex uint32 `json:"stateIndex"`
	Payload    string `json:"payload"`
}
