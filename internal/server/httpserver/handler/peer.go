package handler

import (
	"errors"
	"net/http"

	"github.com/yndnr/peerhub-go/internal/core/domain"
	"github.com/yndnr/peerhub-go/internal/server/httpserver"
)

// decodeBody decodes the JSON body of req into v, returning a 400
// response on failure.
func decodeBody(req *httpserver.Request, v any) *httpserver.Response {
	if err := req.DecodeJSON(v); err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) && de.Details != "" {
			return badRequest(de.Details)
		}
		return badRequest(err.Error())
	}
	return nil
}

// sender returns from, defaulting to the session user.
func sender(req *httpserver.Request, from string) string {
	if from == "" && req.Authenticated {
		return req.User
	}
	return from
}

// handleAddList handles POST /add-list.
func (h *Handler) handleAddList(req *httpserver.Request) *httpserver.Response {
	var body AddListRequest
	if resp := decodeBody(req, &body); resp != nil {
		return resp
	}
	if body.Item == "" {
		return badRequest("Missing 'item'")
	}

	rec, err := h.dir.Register(domain.PeerRecord{
		Name: body.User,
		Item: body.Item,
		Host: body.Host,
		Port: body.Port,
	})
	if err != nil {
		return serviceError(req, err)
	}
	return httpserver.JSON(http.StatusOK, AddListResponse{Message: msgItemAdded, Item: rec.Item})
}

// handleGetList handles GET /get-list.
func (h *Handler) handleGetList(req *httpserver.Request) *httpserver.Response {
	peers := h.dir.List()
	out := GetListResponse{Count: len(peers), List: make([]PeerEntry, 0, len(peers))}
	for _, p := range peers {
		out.List = append(out.List, PeerEntry{
			User:  p.Name,
			Item:  p.Item,
			Host:  p.Host,
			Port:  p.Port,
			State: p.State.String(),
		})
	}
	return httpserver.JSON(http.StatusOK, out)
}

// handleConnectPeer handles POST /connect-peer. An unknown peer is not an
// HTTP error; the body reports it as not online.
func (h *Handler) handleConnectPeer(req *httpserver.Request) *httpserver.Response {
	var body ConnectPeerRequest
	if resp := decodeBody(req, &body); resp != nil {
		return resp
	}
	if body.Peer == "" {
		return badRequest("Missing 'peer'")
	}

	rec, err := h.dir.Connect(body.Peer)
	if errors.Is(err, domain.ErrPeerNotFound) {
		return httpserver.JSON(http.StatusOK, ConnectPeerResponse{Message: msgPeerNotOnline})
	}
	if err != nil {
		return serviceError(req, err)
	}
	return httpserver.JSON(http.StatusOK, ConnectPeerResponse{
		Message:  msgPeerConnected,
		PeerUser: rec.Name,
		Host:     rec.Host,
		Port:     rec.Port,
	})
}

// handleBroadcastPeer handles POST /broadcast-peer.
func (h *Handler) handleBroadcastPeer(req *httpserver.Request) *httpserver.Response {
	var body BroadcastRequest
	if resp := decodeBody(req, &body); resp != nil {
		return resp
	}
	from := sender(req, body.From)
	if from == "" || body.Message == "" {
		return badRequest("Missing 'from' or 'message'")
	}

	res := h.relay.Broadcast(req.Context(), from, body.Message)
	return httpserver.HTML(http.StatusOK, broadcastPage(res.Delivered))
}

// handleSendPeer handles POST /send-peer.
func (h *Handler) handleSendPeer(req *httpserver.Request) *httpserver.Response {
	var body SendRequest
	if resp := decodeBody(req, &body); resp != nil {
		return resp
	}
	from := sender(req, body.From)
	if from == "" || body.To == "" || body.Message == "" {
		return badRequest("Missing required fields")
	}

	err := h.relay.Send(req.Context(), from, body.To, body.Message)
	switch {
	case err == nil:
		return httpserver.HTML(http.StatusOK, sentPage(from, body.To))
	case errors.Is(err, domain.ErrPeerNotFound):
		return httpserver.Text(http.StatusNotFound, "Peer not found")
	default:
		return serviceError(req, err)
	}
}
