package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"palisade-hq/palisade/pkg/keys"
	"palisade-hq/palisade/pkg/usage"
)

// issueKeyRequest is the body of the key issuance endpoint.
type issueKeyRequest struct {
	Name string `json:"name"`
}

// issuedKeyResponse carries the plaintext key. It is returned exactly once
// from issuance and cannot be retrieved again.
type issuedKeyResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix"`
	CreatedAt time.Time `json:"created_at"`
	APIKey    string    `json:"api_key"`
}

func (s *Server) handleIssueKey(w http.ResponseWriter, r *http.Request) {
	var req issueKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "name must not be empty")
		return
	}

	key, plaintext, err := s.keys.Issue(r.Context(), req.Name)
	if err != nil {
		s.logger.Error("key issuance failed", "name", req.Name, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not issue key")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordKeyIssued()
	}
	s.logger.Info("key issued", "key_id", key.ID, "name", key.Name)

	writeJSON(w, http.StatusCreated, issuedKeyResponse{
		ID:        key.ID,
		Name:      key.Name,
		Prefix:    key.Prefix,
		CreatedAt: key.CreatedAt,
		APIKey:    plaintext,
	})
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	list, err := s.keys.List(r.Context())
	if err != nil {
		s.logger.Error("key listing failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not list keys")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"keys":  list,
		"count": len(list),
	})
}

func (s *Server) handleRevokeKey(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "key id must be an integer")
		return
	}

	if err := s.keys.Revoke(r.Context(), id); err != nil {
		if errors.Is(err, keys.ErrKeyNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", fmt.Sprintf("no key with id %d", id))
			return
		}
		s.logger.Error("key revocation failed", "key_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not revoke key")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordKeyRevoked()
	}
	s.logger.Info("key revoked", "key_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQueryLogs(w http.ResponseWriter, r *http.Request) {
	query, err := parseLogQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	records, err := s.usage.Query(r.Context(), query)
	if err != nil {
		s.logger.Error("request log query failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not query request logs")
		return
	}

	total, err := s.usage.Count(r.Context(), query)
	if err != nil {
		s.logger.Error("request log count failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not query request logs")
		return
	}

	if records == nil {
		records = []*usage.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   total,
	})
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "record id must be an integer")
		return
	}

	record, err := s.usage.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, usage.ErrRecordNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", fmt.Sprintf("no record with id %d", id))
			return
		}
		s.logger.Error("request log read failed", "record_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not read request log")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// parseLogQuery translates URL query parameters into a request log filter.
func parseLogQuery(r *http.Request) (*usage.Query, error) {
	values := r.URL.Query()
	query := &usage.Query{
		Endpoint: values.Get("endpoint"),
		Contains: values.Get("contains"),
	}

	if raw := values.Get("key_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("key_id must be an integer")
		}
		query.KeyID = &id
	}

	if raw := values.Get("status"); raw != "" {
		status := usage.Status(raw)
		if !status.Valid() {
			return nil, fmt.Errorf("unknown status %q", raw)
		}
		query.Status = status
	}

	for name, dst := range map[string]**time.Time{
		"start_time": &query.StartTime,
		"end_time":   &query.EndTime,
	} {
		if raw := values.Get(name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, fmt.Errorf("%s must be RFC 3339", name)
			}
			*dst = &t
		}
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return nil, fmt.Errorf("limit must be a non-negative integer")
		}
		query.Limit = limit
	}

	if raw := values.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("offset must be a non-negative integer")
		}
		query.Offset = offset
	}

	return query, nil
}
