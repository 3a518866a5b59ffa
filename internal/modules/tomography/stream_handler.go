package tomography

import (
	"net/http"
	"strconv"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// streamEvent is one message on the progress websocket.
type streamEvent struct {
	Type    string  `json:"type"` // attempt | result | error
	Attempt int     `json:"attempt,omitempty"`
	Value   float64 `json:"value,omitempty"`
	Error   string  `json:"error,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

// HandleStream handles GET /stream - run a tomography session over a
// websocket, emitting one event per finished optimizer attempt and a final
// result event. Query parameters mirror the POST /run body.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	req, err := runRequestFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	// Estimate invokes the progress callback serially from the goroutine
	// running the session, so writing to the connection directly is safe.
	progress := func(attempt int, value float64, attemptErr error) {
		event := streamEvent{Type: "attempt", Attempt: attempt, Value: value}
		if attemptErr != nil {
			event.Error = attemptErr.Error()
		}
		if writeErr := wsjson.Write(ctx, conn, event); writeErr != nil {
			h.log.Debug().Err(writeErr).Msg("Dropping progress event, client gone")
		}
	}

	sess, err := h.sessionFrom(req, "stream", progress)
	if err != nil {
		_ = wsjson.Write(ctx, conn, streamEvent{Type: "error", Error: err.Error()})
		conn.Close(websocket.StatusPolicyViolation, "invalid configuration")
		return
	}

	result, err := h.RunAndStore(ctx, sess)
	if err != nil {
		h.log.Error().Err(err).Msg("Streamed tomography run failed")
		_ = wsjson.Write(ctx, conn, streamEvent{Type: "error", Error: err.Error()})
		conn.Close(websocket.StatusInternalError, "run failed")
		return
	}

	if err := wsjson.Write(ctx, conn, streamEvent{Type: "result", Result: result}); err != nil {
		h.log.Debug().Err(err).Msg("Failed to deliver final result")
		return
	}
	conn.Close(websocket.StatusNormalClosure, "done")
}

// runRequestFromQuery parses the stream endpoint's query parameters.
func runRequestFromQuery(r *http.Request) (runRequest, error) {
	q := r.URL.Query()
	req := runRequest{}

	intParam := func(key string) (int, error) {
		v := q.Get(key)
		if v == "" {
			return 0, nil
		}
		return strconv.Atoi(v)
	}

	var err error
	if req.NQubits, err = intParam("n_qubits"); err != nil {
		return req, err
	}
	if req.ShotsX, err = intParam("shots_x"); err != nil {
		return req, err
	}
	if req.ShotsY, err = intParam("shots_y"); err != nil {
		return req, err
	}
	if req.ShotsZ, err = intParam("shots_z"); err != nil {
		return req, err
	}
	if req.Restarts, err = intParam("restarts"); err != nil {
		return req, err
	}

	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return req, err
		}
		req.Seed = &seed
	}

	if req.NQubits == 0 {
		req.NQubits = 1
	}
	return req, nil
}
