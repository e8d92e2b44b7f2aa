package browse

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/robert-malhotra/go-mayacache/fluid"
	"github.com/robert-malhotra/go-mayacache/mcc"
)

// previewLen caps the value preview of a chunk in JSON trees.
const previewLen = 80

var errBadName = errors.New("bad file name")

var servedExts = map[string]bool{".mc": true, ".mcx": true, ".xml": true}

// resolve maps a request name onto a regular file inside the served
// directory.
func (s *Server) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) {
		return "", errors.Wrapf(errBadName, "%q", name)
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", errors.Wrapf(errBadName, "%q is not a file", name)
	}
	return path, nil
}

func statusFor(err error) int {
	var se *mcc.StructureError
	var de *mcc.DecodeError
	switch {
	case errors.Is(err, errBadName):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.As(err, &se), errors.As(err, &de), mcc.IsScanError(err), fluid.IsValidationError(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "encoding response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	files := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() && servedExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	s.writeJSON(w, r, files)
}

// jsonNode is the JSON form of a tree node.
type jsonNode struct {
	Kind     string     `json:"kind,omitempty"`
	Tag      string     `json:"tag"`
	Size     uint64     `json:"size"`
	Offset   int64      `json:"offset"`
	Type     string     `json:"type,omitempty"`
	Value    string     `json:"value,omitempty"`
	Error    string     `json:"error,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

func (s *Server) toJSON(n mcc.Node) jsonNode {
	switch n := n.(type) {
	case *mcc.Group:
		out := jsonNode{Kind: n.Kind.String(), Tag: n.Tag.Display(), Size: n.Size, Offset: n.Start}
		if n.IsRoot() {
			out.Kind, out.Tag = "", "root"
		}
		for _, child := range n.Children {
			out.Children = append(out.Children, s.toJSON(child))
		}
		return out
	case *mcc.Chunk:
		out := jsonNode{Tag: n.Tag.Display(), Size: uint64(len(n.Data)), Offset: n.Offset, Type: string(n.Type)}
		if n.Type != mcc.TypeRaw {
			v, err := n.ValueWith(s.registry)
			if err != nil {
				out.Error = err.Error()
			} else {
				out.Value = preview(v.String())
			}
		}
		return out
	}
	return jsonNode{}
}

// preview cuts s to at most previewLen bytes on a rune boundary.
func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	n := previewLen
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func (s *Server) parse(op, path string) (*mcc.Group, error) {
	start := time.Now()
	root, err := mcc.ParseFile(path, mcc.WithRegistry(s.registry))
	s.metrics.observe(op, start, err)
	return root, err
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.resolve(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	root, err := s.parse("tree", path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, s.toJSON(root))
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	path, err := s.resolve(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	root, err := s.parse("dump", path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	opts := mcc.PrintOptions{Data: r.URL.Query().Get("data") == "1", Registry: s.registry}
	if err := mcc.Fprint(w, root, opts); err != nil {
		s.logger.Error("dump failed", "path", path, "err", err)
	}
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	path, err := s.resolve(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	start := time.Now()
	var channels []mcc.ChannelInfo
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		channels, err = s.scanner.ScanCache(path)
	} else {
		channels, err = s.scanner.Scan(path)
	}
	s.metrics.observe("channels", start, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	type jsonChannel struct {
		Name   string `json:"name"`
		Points uint32 `json:"points"`
	}
	out := make([]jsonChannel, len(channels))
	for i, ch := range channels {
		out[i] = jsonChannel{Name: ch.Name, Points: ch.Points}
	}
	s.writeJSON(w, r, out)
}

type cacheSummary struct {
	TimePerFrame int            `json:"timePerFrame"`
	Shapes       []shapeSummary `json:"shapes"`
	Channels     []channelEntry `json:"channels"`
	Frames       []frameEntry   `json:"frames"`
}

type shapeSummary struct {
	Name       string     `json:"name"`
	Resolution [3]int     `json:"resolution"`
	Dimensions [3]float64 `json:"dimensions"`
}

type channelEntry struct {
	Name           string `json:"name"`
	Shape          string `json:"shape"`
	Interpretation string `json:"interpretation"`
}

type frameEntry struct {
	File  string `json:"file"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	path, err := s.resolve(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !strings.EqualFold(filepath.Ext(path), ".xml") {
		s.writeError(w, r, errors.Wrap(errBadName, "not a cache description"))
		return
	}

	start := time.Now()
	c, err := fluid.Open(path, fluid.WithRegistry(s.registry), fluid.WithLogger(s.logger))
	var frames []*fluid.Frame
	if err == nil {
		frames, err = c.SortFrames(r.Context())
	}
	s.metrics.observe("cache", start, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sum := cacheSummary{
		TimePerFrame: c.TimePerFrame,
		Shapes:       []shapeSummary{},
		Channels:     []channelEntry{},
		Frames:       []frameEntry{},
	}
	for _, name := range c.ShapeNames() {
		spec := c.ShapeSpecs[name]
		sum.Shapes = append(sum.Shapes, shapeSummary{Name: name, Resolution: spec.Resolution, Dimensions: spec.Dimensions})
	}
	for _, spec := range c.ChannelSpecs {
		sum.Channels = append(sum.Channels, channelEntry{Name: spec.Name, Shape: spec.Shape, Interpretation: spec.Interpretation})
	}
	sort.Slice(sum.Channels, func(i, j int) bool { return sum.Channels[i].Name < sum.Channels[j].Name })
	for _, f := range frames {
		sum.Frames = append(sum.Frames, frameEntry{File: filepath.Base(f.Path()), Start: f.StartTime(), End: f.EndTime()})
	}
	s.writeJSON(w, r, sum)
}
