package handler

// AddListRequest is the body of POST /add-list.
type AddListRequest struct {
	User string `json:"user"`
	Item string `json:"item"`
	Host string `json:"host,omitempty"`
	Port int    `json:"port"`
}

// AddListResponse is the body returned by POST /add-list.
type AddListResponse struct {
	Message string `json:"message"`
	Item    string `json:"item"`
}

// PeerEntry is one entry of GET /get-list.
type PeerEntry struct {
	User  string `json:"user"`
	Item  string `json:"item"`
	Host  string `json:"host"`
	Port  int    `json:"port"`
	State string `json:"state"`
}

// GetListResponse is the body returned by GET /get-list.
type GetListResponse struct {
	Count int         `json:"count"`
	List  []PeerEntry `json:"list"`
}

// ConnectPeerRequest is the body of POST /connect-peer.
type ConnectPeerRequest struct {
	Peer string `json:"peer"`
}

// ConnectPeerResponse is the body returned by POST /connect-peer. Only
// Message is set when the peer is not online.
type ConnectPeerResponse struct {
	Message  string `json:"message"`
	PeerUser string `json:"peer_user,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
}

// BroadcastRequest is the body of POST /broadcast-peer.
type BroadcastRequest struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// SendRequest is the body of POST /send-peer.
type SendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	Commit          string `json:"commit"`
	GoVersion       string `json:"go_version"`
	Uptime          string `json:"uptime"`
	Sessions        int    `json:"sessions"`
	PeersRegistered int    `json:"peers_registered"`
	PeersConnected  int    `json:"peers_connected"`
}

const (
	msgItemAdded     = "Item added"
	msgPeerConnected = "Peer connected"
	msgPeerNotOnline = "Peer not online"
)
