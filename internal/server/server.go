package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/ipeadata-tools/inflation-indices/internal/dataset"
	"github.com/ipeadata-tools/inflation-indices/pkg/columns"
	"github.com/ipeadata-tools/inflation-indices/pkg/constants"
	"github.com/ipeadata-tools/inflation-indices/pkg/datetime"
	"github.com/ipeadata-tools/inflation-indices/pkg/format"
	"github.com/ipeadata-tools/inflation-indices/pkg/mathutil"
	"github.com/ipeadata-tools/inflation-indices/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

//go:embed static/*
var staticFiles embed.FS

// Messages shown to dashboard users.
const (
	noIndicesMessage   = "Não consegui inferir os índices a partir dos nomes das colunas. Verifique o padrão: 'IPCA Variacao (%)', 'IPCA Fator', etc."
	missingColumnLabel = "Coluna não encontrada: "
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Options configures the dashboard handler.
type Options struct {
	DataPath      string
	MaxUploadSize int64
	CacheEntries  int
	Version       string
}

type handler struct {
	logger        *zap.Logger
	dataPath      string
	maxUploadSize int64
	version       string
	cache         *tableCache
	metrics       *metrics
}

// NewHandler constructs the HTTP handler that serves the dashboard UI and its API.
func NewHandler(logger *zap.Logger, opts Options) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	if opts.CacheEntries <= 0 {
		opts.CacheEntries = constants.DefaultCacheEntries
	}
	if strings.TrimSpace(opts.DataPath) == "" {
		opts.DataPath = constants.DefaultDashboardDataFile
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	m := newMetrics()
	cache, err := newTableCache(opts.CacheEntries, m)
	if err != nil {
		return nil, err
	}

	h := &handler{
		logger:        logger,
		dataPath:      opts.DataPath,
		maxUploadSize: opts.MaxUploadSize,
		version:       trimmedVersion,
		cache:         cache,
		metrics:       m,
	}

	mux := http.NewServeMux()

	// Dataset metadata (GET) and upload (POST)
	mux.HandleFunc("/api/dataset", h.handleDataset)

	// Selected series with its summary
	mux.HandleFunc("/api/series", h.handleSeries)

	// Full filtered wide table
	mux.HandleFunc("/api/table", h.handleTable)

	// Downloads
	mux.HandleFunc("/api/export/series", h.handleExportSeries)
	mux.HandleFunc("/api/export/long", h.handleExportLong)

	mux.HandleFunc("/api/version", h.handleVersion)
	mux.Handle("/metrics", m.handler())

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare embedded static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))

	return mux, nil
}

type datasetResponse struct {
	Dataset string   `json:"dataset,omitempty"`
	Source  string   `json:"source"`
	Name    string   `json:"name"`
	Rows    int      `json:"rows"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Columns []string `json:"columns"`
	Indices []string `json:"indices"`
	Tipos   []string `json:"tipos"`
	Cached  bool     `json:"cached"`
}

type pointResponse struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

type summaryResponse struct {
	Observations     int      `json:"observations"`
	ObservationsText string   `json:"observationsText"`
	First            string   `json:"first"`
	Last             string   `json:"last"`
	LastValue        *float64 `json:"lastValue"`
	LastValueText    string   `json:"lastValueText"`
}

type seriesResponse struct {
	Indice  string          `json:"indice"`
	Tipo    string          `json:"tipo"`
	Column  string          `json:"column"`
	Start   string          `json:"start"`
	End     string          `json:"end"`
	Summary summaryResponse `json:"summary"`
	Points  []pointResponse `json:"points"`
}

type tableResponse struct {
	Columns []string     `json:"columns"`
	Rows    [][]*float64 `json:"rows"`
	Dates   []string     `json:"dates"`
}

// selection is a parsed series request against a resolved dataset.
type selection struct {
	entry    *datasetEntry
	filtered *dataset.Table
	start    time.Time
	end      time.Time
}

// requestError carries the status a handler should answer with.
type requestError struct {
	status  int
	msg     string
	warning bool
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(layout string, args ...interface{}) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(layout, args...)}
}

func (h *handler) handleDataset(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entry, cached, reqErr := h.resolve(r)
		if reqErr != nil {
			h.respondRequestError(w, reqErr, "server.handleDataset")
			return
		}
		h.respondDataset(w, entry, cached, "server.handleDataset")
	case http.MethodPost:
		h.handleUpload(w, r)
	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing dataset file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read dataset: %v", err), op)
		return
	}

	entry, cached, err := h.cache.loadBytes(header.Filename, buf.Bytes())
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.respondDataset(w, entry, cached, op)
}

func (h *handler) respondDataset(w http.ResponseWriter, entry *datasetEntry, cached bool, op string) {
	if len(entry.Indices) == 0 {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, noIndicesMessage, op)
		return
	}

	first, last := entry.Table.DateRange()
	response := datasetResponse{
		Source:  entry.Source,
		Name:    entry.Name,
		Rows:    entry.Table.Len(),
		Start:   datetime.Format(first),
		End:     datetime.Format(last),
		Columns: entry.Table.ColumnNames(),
		Indices: entry.Indices,
		Tipos:   entry.Tipos,
		Cached:  cached,
	}
	if entry.Source == sourceUpload {
		response.Dataset = entry.Key
	}

	h.logger.Info("dataset resolved",
		zap.String("op", op),
		zap.String("source", entry.Source),
		zap.String("name", entry.Name),
		zap.Int("rows", response.Rows),
		zap.Int("indices", len(entry.Indices)),
		zap.Bool("cached", cached),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleSeries(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSeries"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	sel, indice, tipo, series, reqErr := h.selectSeries(r)
	if reqErr != nil {
		h.respondRequestError(w, reqErr, op)
		return
	}

	summary := dataset.Summarize(series)
	response := seriesResponse{
		Indice: indice,
		Tipo:   tipo,
		Column: series.Column,
		Start:  datetime.Format(sel.start),
		End:    datetime.Format(sel.end),
		Summary: summaryResponse{
			Observations:     summary.Observations,
			ObservationsText: format.Count(summary.Observations),
			First:            datetime.Format(summary.First),
			Last:             datetime.Format(summary.Last),
			LastValue:        optional(summary.LastValue),
			LastValueText:    format.Number(summary.LastValue, 6),
		},
		Points: make([]pointResponse, 0, len(series.Points)),
	}
	for _, p := range series.Points {
		response.Points = append(response.Points, pointResponse{
			Date:  datetime.Format(p.Date),
			Value: optional(p.Value),
		})
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleTable(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTable"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	sel, reqErr := h.selectRange(r)
	if reqErr != nil {
		h.respondRequestError(w, reqErr, op)
		return
	}

	table := sel.filtered
	response := tableResponse{
		Columns: append([]string{constants.DateColumn}, table.ColumnNames()...),
		Rows:    make([][]*float64, 0, table.Len()),
		Dates:   make([]string, 0, table.Len()),
	}
	for i, d := range table.Dates {
		row := make([]*float64, len(table.Columns))
		for j, c := range table.Columns {
			row[j] = optional(c.Values[i])
		}
		response.Dates = append(response.Dates, datetime.Format(d))
		response.Rows = append(response.Rows, row)
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleExportSeries(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExportSeries"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	sel, indice, tipo, series, reqErr := h.selectSeries(r)
	if reqErr != nil {
		h.respondRequestError(w, reqErr, op)
		return
	}

	var buf bytes.Buffer
	if err := dataset.WriteSeriesCSV(&buf, dataset.SeriesRows(series)); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to build CSV: %v", err), op)
		return
	}

	name := dataset.SeriesFileName(indice, tipo, datetime.Format(sel.start), datetime.Format(sel.end))
	h.writeDownload(w, "text/csv; charset=utf-8", name, buf.Bytes(), "series_csv", op)
}

func (h *handler) handleExportLong(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExportLong"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	exportFormat := strings.ToLower(strings.TrimSpace(query.Get("format")))
	if exportFormat == "" {
		exportFormat = constants.ExportFormatCSV
	}
	if err := validation.ValidateExportFormat(exportFormat); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	sel, reqErr := h.selectRange(r)
	if reqErr != nil {
		h.respondRequestError(w, reqErr, op)
		return
	}

	indices := sel.entry.Indices
	if requested := queryList(query["indice"]); len(requested) > 0 {
		if unknown := validation.ValidateSubset(requested, sel.entry.Indices); len(unknown) > 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest,
				fmt.Sprintf("unknown indices: %s", strings.Join(unknown, ", ")), op)
			return
		}
		indices = requested
	}
	tipos := sel.entry.Tipos
	if requested := queryList(query["tipo"]); len(requested) > 0 {
		if unknown := validation.ValidateSubset(requested, sel.entry.Tipos); len(unknown) > 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest,
				fmt.Sprintf("unknown metric types: %s", strings.Join(unknown, ", ")), op)
			return
		}
		tipos = requested
	}

	rows := dataset.ToLong(sel.filtered, indices, tipos)
	start, end := datetime.Format(sel.start), datetime.Format(sel.end)

	var buf bytes.Buffer
	switch exportFormat {
	case constants.ExportFormatXLSX:
		if err := dataset.WriteLongXLSX(&buf, rows); err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to build workbook: %v", err), op)
			return
		}
		h.writeDownload(w, xlsxContentType, dataset.LongFileName(start, end, "xlsx"), buf.Bytes(), "long_xlsx", op)
	default:
		if err := dataset.WriteLongCSV(&buf, rows); err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to build CSV: %v", err), op)
			return
		}
		h.writeDownload(w, "text/csv; charset=utf-8", dataset.LongFileName(start, end, "csv"), buf.Bytes(), "long_csv", op)
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// resolve returns the dataset named by the "dataset" query parameter, or the
// default data file when it is absent.
func (h *handler) resolve(r *http.Request) (*datasetEntry, bool, *requestError) {
	key := strings.TrimSpace(r.URL.Query().Get("dataset"))
	if key != "" {
		entry, ok := h.cache.get(key)
		if !ok {
			return nil, false, &requestError{
				status: http.StatusNotFound,
				msg:    "uploaded dataset is no longer loaded; upload it again",
			}
		}
		return entry, true, nil
	}

	entry, cached, err := h.cache.loadFile(h.dataPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, &requestError{
				status: http.StatusNotFound,
				msg:    fmt.Sprintf("default dataset %s not found; upload a CSV file", h.dataPath),
			}
		}
		return nil, false, badRequest("%v", err)
	}
	return entry, cached, nil
}

// selectRange resolves the dataset and filters it by the start and end query
// parameters. Absent bounds default to the dataset span.
func (h *handler) selectRange(r *http.Request) (*selection, *requestError) {
	entry, _, reqErr := h.resolve(r)
	if reqErr != nil {
		return nil, reqErr
	}
	if len(entry.Indices) == 0 {
		return nil, &requestError{status: http.StatusUnprocessableEntity, msg: noIndicesMessage}
	}

	first, last := entry.Table.DateRange()
	query := r.URL.Query()
	start, err := parseBound(query.Get("start"), first)
	if err != nil {
		return nil, badRequest("invalid start date: %v", err)
	}
	end, err := parseBound(query.Get("end"), last)
	if err != nil {
		return nil, badRequest("invalid end date: %v", err)
	}
	if err := validation.ValidateDateRange(start, end); err != nil {
		return nil, badRequest("%v", err)
	}

	return &selection{
		entry:    entry,
		filtered: entry.Table.Filter(start, end),
		start:    start,
		end:      end,
	}, nil
}

// selectSeries resolves the series named by the indice and tipo query
// parameters within the filtered range. The first inferred index and metric
// are used when a parameter is absent.
func (h *handler) selectSeries(r *http.Request) (*selection, string, string, dataset.Series, *requestError) {
	sel, reqErr := h.selectRange(r)
	if reqErr != nil {
		return nil, "", "", dataset.Series{}, reqErr
	}

	query := r.URL.Query()
	indice := strings.TrimSpace(query.Get("indice"))
	if indice == "" {
		indice = sel.entry.Indices[0]
	}
	tipo := norm.NFC.String(strings.TrimSpace(query.Get("tipo")))
	if tipo == "" {
		tipo = sel.entry.Tipos[0]
	}

	column, err := columns.Name(indice, tipo)
	if err != nil {
		return nil, "", "", dataset.Series{}, badRequest("%v", err)
	}

	series, ok := sel.filtered.Series(column)
	if !ok {
		return nil, "", "", dataset.Series{}, &requestError{
			status:  http.StatusNotFound,
			msg:     missingColumnLabel + column,
			warning: true,
		}
	}
	return sel, indice, tipo, series, nil
}

func parseBound(value string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	t, ok := datetime.ParseDate(value)
	if !ok {
		return time.Time{}, fmt.Errorf("unrecognized date %q", value)
	}
	return t, nil
}

// queryList flattens repeated and comma-separated query values.
func queryList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if trimmed := norm.NFC.String(strings.TrimSpace(part)); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func optional(v float64) *float64 {
	if mathutil.IsMissing(v) {
		return nil
	}
	return &v
}

func (h *handler) writeDownload(w http.ResponseWriter, contentType, name string, body []byte, kind, op string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write download",
			zap.String("op", op),
			zap.String("file", name),
			zap.Error(err),
		)
		return
	}
	h.metrics.exports.WithLabelValues(kind).Inc()
	h.logger.Info("export served",
		zap.String("op", op),
		zap.String("file", name),
		zap.Int("bytes", len(body)),
	)
}

func (h *handler) respondRequestError(w http.ResponseWriter, reqErr *requestError, op string) {
	if reqErr.warning {
		h.respondWarningWithOp(w, reqErr.status, reqErr.msg, op)
		return
	}
	h.respondErrorWithOp(w, reqErr.status, reqErr.msg, op)
}

func (h *handler) respondWarningWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Warn("dashboard request stopped",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("warning", msg),
	)
	h.metrics.requestFailures.WithLabelValues(op, fmt.Sprintf("%d", status)).Inc()
	h.writeJSON(w, status, map[string]string{"warning": msg})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("dashboard request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.metrics.requestFailures.WithLabelValues(op, fmt.Sprintf("%d", status)).Inc()
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
