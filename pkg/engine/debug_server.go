package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/go-fresco/fresco/pkg/core"
	"github.com/go-fresco/fresco/pkg/layout"
)

// DebugServer serves render tree, element tree, and frame timing
// inspection over HTTP.
//
// Handlers read binding state between frames; the frame trace buffer has
// its own lock and is safe to snapshot at any time.
type DebugServer struct {
	binding   *RendererBinding
	log       zerolog.Logger
	sessionID string

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	group    *errgroup.Group
}

// NewDebugServer creates a server for the given binding. Each server gets
// a fresh session id so log streams from restarts are distinguishable.
func NewDebugServer(binding *RendererBinding, log zerolog.Logger) *DebugServer {
	sessionID := uuid.NewString()
	return &DebugServer{
		binding:   binding,
		log:       log.With().Str("session", sessionID).Logger(),
		sessionID: sessionID,
	}
}

// SessionID returns the server's session identifier.
func (s *DebugServer) SessionID() string {
	return s.sessionID
}

// Start binds the listener and begins serving. Returns the actual port,
// which differs from the argument when port is 0.
func (s *DebugServer) Start(port int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.listener.Addr().(*net.TCPAddr).Port, nil
	}

	// Bind first to fail fast on port conflicts.
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("debug server listen: %w", err)
	}
	actualPort := listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc("/render-tree", s.handleRenderTree)
	mux.HandleFunc("/element-tree", s.handleElementTree)
	mux.HandleFunc("/frames", s.handleFrameTimeline)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/debug", s.handleDebug)

	server := &http.Server{Handler: s.accessLog(mux)}
	s.server = server
	s.listener = listener

	s.group = &errgroup.Group{}
	s.group.Go(func() error {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("debug server failed")
			return err
		}
		return nil
	})

	s.log.Info().Int("port", actualPort).Msg("debug server listening")
	return actualPort, nil
}

// Stop shuts the server down gracefully and waits for the serve goroutine.
func (s *DebugServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	group := s.group
	s.server = nil
	s.listener = nil
	s.group = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	return group.Wait()
}

// accessLog tags every request with a uuid and logs method, path, status,
// and duration.
func (s *DebugServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// maxTreeDepth limits recursion depth to prevent stack overflow from
// malformed trees.
const maxTreeDepth = 500

// RenderTreeNode represents a node in the serialized render tree.
// Uses SafeFloat for dimensions that may contain Inf/NaN from layout issues.
type RenderTreeNode struct {
	Type              string           `json:"type"`
	Size              SafeSize         `json:"size"`
	Constraints       *SafeConstraints `json:"constraints,omitempty"`
	Offset            SafeOffset       `json:"offset"`
	Depth             int              `json:"depth"`
	NeedsLayout       bool             `json:"needsLayout"`
	NeedsPaint        bool             `json:"needsPaint"`
	IsRepaintBoundary bool             `json:"isRepaintBoundary"`
	Children          []RenderTreeNode `json:"children,omitempty"`
}

// SafeFloat wraps a float64 to handle Inf/NaN in JSON encoding.
type SafeFloat float64

func (f SafeFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 1) {
		return []byte(`"Infinity"`), nil
	}
	if math.IsInf(v, -1) {
		return []byte(`"-Infinity"`), nil
	}
	if math.IsNaN(v) {
		return []byte(`"NaN"`), nil
	}
	return json.Marshal(v)
}

// SafeSize is a JSON-safe version of graphics.Size.
type SafeSize struct {
	Width  SafeFloat `json:"width"`
	Height SafeFloat `json:"height"`
}

// SafeOffset is a JSON-safe version of graphics.Offset.
type SafeOffset struct {
	X SafeFloat `json:"x"`
	Y SafeFloat `json:"y"`
}

// SafeConstraints is a JSON-safe version of layout.Constraints.
type SafeConstraints struct {
	MinWidth  SafeFloat `json:"minWidth"`
	MaxWidth  SafeFloat `json:"maxWidth"`
	MinHeight SafeFloat `json:"minHeight"`
	MaxHeight SafeFloat `json:"maxHeight"`
}

// ElementTreeNode represents a node in the serialized element tree.
type ElementTreeNode struct {
	WidgetType  string            `json:"widgetType"`
	ElementType string            `json:"elementType"`
	Key         any               `json:"key,omitempty"`
	Depth       int               `json:"depth"`
	NeedsBuild  bool              `json:"needsBuild"`
	HasState    bool              `json:"hasState,omitempty"`
	Children    []ElementTreeNode `json:"children,omitempty"`
}

func (s *DebugServer) handleRenderTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Recover from panics during serialization.
	defer func() {
		if rec := recover(); rec != nil {
			http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
		}
	}()

	views := s.binding.Views()
	var trees []RenderTreeNode
	for _, view := range views {
		root, ok := view.(layout.RenderObject)
		if !ok {
			continue
		}
		trees = append(trees, serializeRenderTree(root, 0))
	}
	if len(trees) == 0 {
		http.Error(w, "no render tree", http.StatusServiceUnavailable)
		return
	}

	var payload any = trees
	if len(trees) == 1 {
		payload = trees[0]
	}
	writeJSON(w, payload)
}

func (s *DebugServer) handleElementTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
		}
	}()

	root := s.binding.RootElement()
	if root == nil {
		http.Error(w, "no element tree", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, serializeElementTree(root, 0))
}

func (s *DebugServer) handleFrameTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := s.binding.FrameTrace().Snapshot()
	applyFrameFilters(r, &resp)
	writeJSON(w, resp)
}

func (s *DebugServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","session":%q}`, s.sessionID)
}

func (s *DebugServer) handleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var info struct {
		Session   string   `json:"session"`
		ViewCount int      `json:"viewCount"`
		ViewSizes []string `json:"viewSizes,omitempty"`
		HasRoot   bool     `json:"hasRoot"`
	}
	info.Session = s.sessionID
	views := s.binding.Views()
	info.ViewCount = len(views)
	for _, view := range views {
		if root, ok := view.(layout.RenderObject); ok {
			size := root.Size()
			info.ViewSizes = append(info.ViewSizes, fmt.Sprintf("%.2fx%.2f", size.Width, size.Height))
		}
	}
	info.HasRoot = s.binding.RootElement() != nil

	writeJSON(w, info)
}

// writeJSON encodes to a buffer first so encode errors surface as 500s
// instead of truncated bodies.
func writeJSON(w http.ResponseWriter, payload any) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func applyFrameFilters(r *http.Request, resp *FrameTimeline) {
	limit := 0
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var filters []func(FrameSample) bool

	if v := parseFloatQuery(r, "min_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.FrameMs >= v })
	}
	if v := parseFloatQuery(r, "build_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.Phases.BuildMs >= v })
	}
	if v := parseFloatQuery(r, "layout_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.Phases.LayoutMs >= v })
	}
	if v := parseFloatQuery(r, "paint_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.Phases.PaintMs >= v })
	}
	if v := parseFloatQuery(r, "composite_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.Phases.CompositeMs >= v })
	}
	if value := r.URL.Query().Get("backpressure"); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil && parsed {
			filters = append(filters, func(s FrameSample) bool { return s.Flags.RasterBackpressure })
		}
	}

	if len(filters) > 0 {
		filtered := make([]FrameSample, 0, len(resp.Samples))
	outer:
		for _, sample := range resp.Samples {
			for _, f := range filters {
				if !f(sample) {
					continue outer
				}
			}
			filtered = append(filtered, sample)
		}
		resp.Samples = filtered
	}

	if limit > 0 && len(resp.Samples) > limit {
		resp.Samples = resp.Samples[len(resp.Samples)-limit:]
	}
}

func parseFloatQuery(r *http.Request, key string) float64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return 0
	}
	return parsed
}

// serializeElementTree recursively converts an element tree to
// JSON-serializable form. The depth parameter limits recursion.
func serializeElementTree(elem core.Element, depth int) ElementTreeNode {
	if elem == nil {
		return ElementTreeNode{ElementType: "<nil>"}
	}

	widget := elem.Widget()
	node := ElementTreeNode{
		ElementType: reflect.TypeOf(elem).String(),
		Depth:       elem.Depth(),
		NeedsBuild:  getNeedsBuild(elem),
	}

	if widget != nil {
		node.WidgetType = reflect.TypeOf(widget).String()
		node.Key = safeKey(widget.Key())
	}

	if _, ok := elem.(*core.StatefulElement); ok {
		node.HasState = true
	}

	if depth < maxTreeDepth {
		elem.VisitChildren(func(child core.Element) bool {
			node.Children = append(node.Children, serializeElementTree(child, depth+1))
			return true
		})
	}

	return node
}

// safeKey converts a widget key to a JSON-safe value. Non-serializable
// types (funcs, chans, etc.) fall back to their string representation.
func safeKey(key any) any {
	if key == nil {
		return nil
	}
	switch key.(type) {
	case string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, bool:
		return key
	default:
		return fmt.Sprintf("%v", key)
	}
}

func getNeedsBuild(elem core.Element) bool {
	if nb, ok := elem.(interface{ NeedsBuild() bool }); ok {
		return nb.NeedsBuild()
	}
	return false
}

// serializeRenderTree recursively converts a render object tree to
// JSON-serializable form. The depth parameter limits recursion.
func serializeRenderTree(obj layout.RenderObject, depth int) RenderTreeNode {
	size := obj.Size()
	node := RenderTreeNode{
		Type: reflect.TypeOf(obj).String(),
		Size: SafeSize{
			Width:  SafeFloat(size.Width),
			Height: SafeFloat(size.Height),
		},
		NeedsLayout:       getNeedsLayout(obj),
		NeedsPaint:        getNeedsPaint(obj),
		IsRepaintBoundary: obj.IsRepaintBoundary(),
	}

	if getter, ok := obj.(interface{ Constraints() layout.Constraints }); ok {
		c := getter.Constraints()
		node.Constraints = &SafeConstraints{
			MinWidth:  SafeFloat(c.MinWidth),
			MaxWidth:  SafeFloat(c.MaxWidth),
			MinHeight: SafeFloat(c.MinHeight),
			MaxHeight: SafeFloat(c.MaxHeight),
		}
	}

	if getter, ok := obj.(interface{ Depth() int }); ok {
		node.Depth = getter.Depth()
	}

	if pd, ok := obj.ParentData().(*layout.BoxParentData); ok {
		node.Offset = SafeOffset{
			X: SafeFloat(pd.Offset.X),
			Y: SafeFloat(pd.Offset.Y),
		}
	}

	if depth < maxTreeDepth {
		if cv, ok := obj.(layout.ChildVisitor); ok {
			cv.VisitChildren(func(child layout.RenderObject) {
				node.Children = append(node.Children, serializeRenderTree(child, depth+1))
			})
		}
	}

	return node
}

func getNeedsLayout(obj layout.RenderObject) bool {
	if getter, ok := obj.(interface{ NeedsLayout() bool }); ok {
		return getter.NeedsLayout()
	}
	return false
}

func getNeedsPaint(obj layout.RenderObject) bool {
	if getter, ok := obj.(interface{ NeedsPaint() bool }); ok {
		return getter.NeedsPaint()
	}
	return false
}
