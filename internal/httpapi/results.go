package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kpumuk/treescope/internal/compile"
	"github.com/kpumuk/treescope/internal/diffspan"
	"github.com/kpumuk/treescope/internal/session"
)

// resultPayload is the wire form of a published session result.
type resultPayload struct {
	OK            bool                     `json:"ok"`
	Error         string                   `json:"error,omitempty"`
	ErrorLocation *compile.Location        `json:"errorLocation,omitempty"`
	ErrorSpan     *compile.Span            `json:"errorSpan,omitempty"`
	ErrorText     string                   `json:"errorText,omitempty"`
	Tokens        []compile.Token          `json:"tokens,omitempty"`
	Surface       *compile.NodeStore       `json:"surfaceNodeStore,omitempty"`
	Lowered       *compile.NodeStore       `json:"loweredNodeStore,omitempty"`
	Formatted     string                   `json:"formatted,omitempty"`
	Virtual       string                   `json:"formattedVirtual,omitempty"`
	Fix           string                   `json:"formattedFix,omitempty"`
	VirtualSemis  []diffspan.Labeled       `json:"virtualSemis,omitempty"`
	FixInserted   []diffspan.Labeled       `json:"fixInserted,omitempty"`
	Recovery      []compile.RecoveryRecord `json:"recovery,omitempty"`
}

func payloadFrom(res *session.Result) resultPayload {
	if res == nil {
		return resultPayload{}
	}
	var errSpan *compile.Span
	var errText string
	if res.ErrSpan != nil {
		errSpan = &compile.Span{Start: int(res.ErrSpan.Start), End: int(res.ErrSpan.End)}
		errText = string(res.ErrSpan.Slice([]byte(res.Source)))
	}
	return resultPayload{
		OK:            res.OK(),
		Error:         res.Err,
		ErrorLocation: res.ErrLoc,
		ErrorSpan:     errSpan,
		ErrorText:     errText,
		Tokens:        res.Tokens,
		Surface:       res.Surface,
		Lowered:       res.Lowered,
		Formatted:     res.Formatted,
		Virtual:       res.FormattedVirtual,
		Fix:           res.FormattedFix,
		VirtualSemis:  res.VirtualSemis,
		FixInserted:   res.FixInserted,
		Recovery:      res.Recovery,
	}
}

type sourceRequest struct {
	Source string `json:"source"`
}

// handleSource feeds one edit into the debounced session. The compile fires
// after the quiet interval; results arrive on the /api/results stream.
func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	if s.sess == nil {
		writeError(w, http.StatusNotImplemented, "interactive session disabled")
		return
	}
	var req sourceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.sess.OnSourceChange(req.Source)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// streamSink forwards published results without ever blocking the session:
// when the connection is not keeping up, older results are dropped.
type streamSink struct {
	ch chan *session.Result
}

func (s *streamSink) OnResult(res *session.Result) {
	for {
		select {
		case s.ch <- res:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

// handleResults streams published session results as server-sent events,
// starting with the current result if one exists.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if s.sess == nil {
		writeError(w, http.StatusNotImplemented, "interactive session disabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sink := &streamSink{ch: make(chan *session.Result, 4)}
	s.sess.AddSink(sink)
	defer s.sess.RemoveSink(sink)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if cur := s.sess.Current(); cur != nil {
		if !writeEvent(w, flusher, payloadFrom(cur)) {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case res := <-sink.ch:
			if !writeEvent(w, flusher, payloadFrom(res)) {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		return true
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
