package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/pdfrag/storer"
	getsafe "github.com/w-h-a/pdfrag/util/get_safe"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var errStatusNotFound = errors.New("qdrant: not found")

type qdrantStorer struct {
	options storer.Options
	client  *http.Client
}

// Save upserts all points of the document in a single request. Point ids are
// derived from the document id and chunk position, so a retried Save cannot
// duplicate chunks.
func (s *qdrantStorer) Save(ctx context.Context, documentId string, records []storer.Record) error {
	exists, err := s.Exists(ctx, documentId)
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: %s", storer.ErrExists, documentId)
	}

	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	points := make([]map[string]any, 0, len(records))

	for i, rec := range records {
		payload := map[string]any{
			"document_id": documentId,
			"chunk_index": i,
			"content":     rec.Content,
			"metadata":    rec.Metadata,
			"created_at":  createdAt,
		}

		points = append(points, map[string]any{
			"id":      pointId(documentId, i),
			"vector":  rec.Embedding,
			"payload": payload,
		})
	}

	req := map[string]any{
		"points": points,
	}

	var rsp qdrantEnvelope[json.RawMessage]

	path := fmt.Sprintf("/collections/%s/points?wait=true", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPut, path, req, &rsp); err != nil {
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") && len(rsp.Status.Error) > 0 {
		return errors.New(rsp.Status.Error)
	}

	return nil
}

func (s *qdrantStorer) Exists(ctx context.Context, documentId string) (bool, error) {
	req := map[string]any{
		"exact":  true,
		"filter": documentFilter(documentId),
	}

	var rsp qdrantEnvelope[qdrantCountResult]

	path := fmt.Sprintf("/collections/%s/points/count", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return false, err
	}

	return rsp.Result.Count > 0, nil
}

func (s *qdrantStorer) Search(ctx context.Context, documentId string, vector []float32, limit int) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_vector":  false,
		"with_payload": true,
		"filter":       documentFilter(documentId),
	}

	var rsp qdrantEnvelope[[]qdrantPointResult]

	path := fmt.Sprintf("/collections/%s/points/search", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return nil, err
	}

	results := make([]storer.Record, 0, len(rsp.Result))

	for _, point := range rsp.Result {
		payload := point.Payload

		createdAt, _ := time.Parse(time.RFC3339Nano, getsafe.String(payload, "created_at"))

		id := point.Id
		if idx, ok := getsafe.Int(payload, "chunk_index"); ok {
			id = documentId + ":" + strconv.Itoa(idx)
		}

		rec := storer.Record{
			Id:         id,
			DocumentId: getsafe.String(payload, "document_id"),
			Content:    getsafe.String(payload, "content"),
			Metadata:   getsafe.Metadata(payload, "metadata"),
			Score:      float32(point.Score),
			CreatedAt:  createdAt,
		}

		results = append(results, rec)
	}

	return results, nil
}

func (s *qdrantStorer) do(ctx context.Context, method string, path string, req any, rsp any) error {
	u := s.options.Location + path
	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")

	if len(s.options.ApiKey) > 0 {
		request.Header.Set("api-key", s.options.ApiKey)
		request.Header.Set("Authorization", "Bearer "+s.options.ApiKey)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", errStatusNotFound, string(payload))
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("qdrant http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}

	return nil
}

func (s *qdrantStorer) configure() error {
	exists, err := s.collectionExists()
	if err != nil {
		return err
	}

	if !exists {
		if err := s.createCollection(); err != nil {
			return err
		}
	}

	return s.createPayloadIndex()
}

func (s *qdrantStorer) collectionExists() (bool, error) {
	path := fmt.Sprintf("/collections/%s", url.PathEscape(s.options.Collection))

	var rsp qdrantEnvelope[json.RawMessage]

	err := s.do(s.options.Context, http.MethodGet, path, nil, &rsp)
	if errors.Is(err, errStatusNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	return strings.EqualFold(rsp.Status.State, "ok"), nil
}

func (s *qdrantStorer) createCollection() error {
	distance := s.options.Distance
	if len(distance) == 0 {
		distance = "Cosine"
	}
	req := map[string]any{
		"vectors": map[string]any{
			"size":     s.options.VectorSize,
			"distance": distance,
		},
	}

	path := fmt.Sprintf("/collections/%s", url.PathEscape(s.options.Collection))

	var rsp qdrantEnvelope[json.RawMessage]

	if err := s.do(s.options.Context, http.MethodPut, path, req, &rsp); err != nil {
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") {
		return errors.New(rsp.Status.Error)
	}

	return nil
}

func (s *qdrantStorer) createPayloadIndex() error {
	req := map[string]any{
		"field_name":   "document_id",
		"field_schema": "keyword",
	}

	path := fmt.Sprintf("/collections/%s/index?wait=true", url.PathEscape(s.options.Collection))

	return s.do(s.options.Context, http.MethodPut, path, req, nil)
}

func documentFilter(documentId string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{
				"key":   "document_id",
				"match": map[string]any{"value": documentId},
			},
		},
	}
}

func pointId(documentId string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(documentId+":"+strconv.Itoa(index))).String()
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	if len(options.Location) == 0 {
		options.Location = "http://localhost:6333"
	}

	if len(options.Collection) == 0 ||
		options.VectorSize == 0 {
		panic("missing collection or vector size for qdrant storer")
	}

	options.Location = strings.TrimRight(options.Location, "/")

	client := &http.Client{
		Timeout:   60 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	s := &qdrantStorer{
		options: options,
		client:  client,
	}

	if err := s.configure(); err != nil {
		panic(err)
	}

	return s
}
