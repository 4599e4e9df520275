package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/attrdata/pkg/archive"
	"github.com/ssargent/attrdata/pkg/codec"
	"github.com/ssargent/attrdata/pkg/convert"
	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server holds the API server state
type Server struct {
	model   *schema.Model
	codec   codec.Codec
	records RecordStore
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server. metrics and logger may be nil.
func NewServer(model *schema.Model, c codec.Codec, records RecordStore, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		model:   model,
		codec:   c,
		records: records,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]interface{}{
		"status":        "healthy",
		"model":         s.model.Name(),
		"codec_version": s.codec.Version(),
	})
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups := s.model.Groups()
	summaries := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		root, err := s.codec.Compile(g)
		if err != nil {
			s.logger.Error("failed to compile group", "group", g.PID, "error", err)
			sendFailure(w, err)
			return
		}
		summary := GroupSummary{PID: g.PID}
		for _, item := range root.Items() {
			summary.Attributes = append(summary.Attributes, item.Name())
		}
		if root.IsSizeFixed() {
			size := root.FixedSize()
			summary.FixedSize = &size
		}
		summaries = append(summaries, summary)
	}
	sendSuccess(w, summaries)
}

// group resolves the {group} URL parameter, sending 404 when it is unknown.
func (s *Server) group(w http.ResponseWriter, r *http.Request) (*schema.AttributeGroup, bool) {
	pid := chi.URLParam(r, "group")
	g, ok := s.model.Group(pid)
	if !ok {
		sendError(w, "Unknown attribute group: "+pid, http.StatusNotFound)
		return nil, false
	}
	return g, true
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	g, ok := s.group(w, r)
	if !ok {
		return
	}

	var req CheckRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	var attr *schema.Attribute
	for _, a := range g.Attributes {
		if a.Name == req.Attribute {
			attr = a
			break
		}
	}
	if attr == nil {
		sendError(w, "Unknown attribute: "+req.Attribute, http.StatusNotFound)
		return
	}
	if _, isList := attr.Type.(*schema.ListDefinition); isList {
		sendFailure(w, dataerr.TypeMismatch(g.PID+"."+attr.Name, "single value"))
		return
	}

	result := CheckResult{
		Attribute: attr.Name,
		Type:      attr.Type.TypePID(),
		Valid:     true,
	}
	if err := convert.CheckValue(attr.Type, req.Text, s.model); err != nil {
		if !dataerr.IsValueError(err) {
			sendFailure(w, err)
			return
		}
		result.Valid = false
		result.Kind, _ = classify(err)
		result.Error = err.Error()
	}

	if result.Valid {
		s.metrics.RecordCheck(g.PID, "valid")
	} else {
		s.metrics.RecordCheck(g.PID, result.Kind)
	}
	sendSuccess(w, result)
}

func (s *Server) handlePutRecord(w http.ResponseWriter, r *http.Request) {
	g, ok := s.group(w, r)
	if !ok {
		return
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	var value map[string]any
	if err := dec.Decode(&value); err != nil {
		s.metrics.RecordOperation("put", g.PID, false)
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	buf, err := s.codec.Encode(g, value)
	if err != nil {
		s.metrics.RecordOperation("put", g.PID, false)
		sendFailure(w, err)
		return
	}

	id, err := s.records.Put(g.PID, s.codec.Version(), buf)
	if err != nil {
		s.metrics.RecordOperation("put", g.PID, false)
		s.logger.Error("failed to archive record", "group", g.PID, "error", err)
		sendFailure(w, err)
		return
	}

	s.metrics.RecordOperation("put", g.PID, true)
	s.metrics.RecordSize(g.PID, len(buf))
	sendCreated(w, map[string]interface{}{
		"id":   id.String(),
		"size": len(buf),
	})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	g, ok := s.group(w, r)
	if !ok {
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			sendError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	decode := r.URL.Query().Get("decode") == "true"

	entries, err := s.records.List(g.PID, limit)
	if err != nil {
		s.metrics.RecordOperation("list", g.PID, false)
		sendFailure(w, err)
		return
	}

	records := make([]RecordResponse, 0, len(entries))
	for _, e := range entries {
		rec, err := s.recordResponse(g, e, decode)
		if err != nil {
			s.metrics.RecordOperation("list", g.PID, false)
			sendFailure(w, err)
			return
		}
		records = append(records, rec)
	}
	s.metrics.RecordOperation("list", g.PID, true)
	sendSuccess(w, records)
}

// recordID parses the {id} URL parameter.
func recordID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid record id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	g, ok := s.group(w, r)
	if !ok {
		return
	}
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	e, err := s.records.Get(g.PID, id)
	if err != nil {
		s.metrics.RecordOperation("get", g.PID, false)
		sendFailure(w, err)
		return
	}
	rec, err := s.recordResponse(g, e, true)
	if err != nil {
		s.metrics.RecordOperation("get", g.PID, false)
		s.logger.Warn("failed to decode archived record", "group", g.PID, "id", id.String(), "error", err)
		sendFailure(w, err)
		return
	}
	s.metrics.RecordOperation("get", g.PID, true)
	sendSuccess(w, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	g, ok := s.group(w, r)
	if !ok {
		return
	}
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	if err := s.records.Delete(g.PID, id); err != nil {
		s.metrics.RecordOperation("delete", g.PID, false)
		sendFailure(w, err)
		return
	}
	s.metrics.RecordOperation("delete", g.PID, true)
	sendSuccess(w, map[string]string{"status": "deleted"})
}

// recordResponse describes e and, when decode is set, renders its value
// with the codec the record was written with.
func (s *Server) recordResponse(g *schema.AttributeGroup, e *archive.Entry, decode bool) (RecordResponse, error) {
	rec := RecordResponse{
		ID:        e.ID.String(),
		Group:     e.Group,
		Version:   e.Version,
		Timestamp: e.Timestamp.UTC(),
		Size:      len(e.Data),
	}
	if !decode {
		return rec, nil
	}

	c := s.codec
	if e.Version != c.Version() {
		var err error
		if c, err = codec.ForVersion(e.Version); err != nil {
			return rec, err
		}
	}
	data, err := c.CreateUnmodifiableData(g, e.Data)
	if err != nil {
		return rec, err
	}
	if rec.Text, err = data.Text(); err != nil {
		return rec, errors.Wrapf(err, "record %s", rec.ID)
	}
	if rec.Value, err = data.Value(); err != nil {
		return rec, errors.Wrapf(err, "record %s", rec.ID)
	}
	return rec, nil
}
