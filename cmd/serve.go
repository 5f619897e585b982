package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aibrahim185/Algeo02-23012/constants"
	"github.com/aibrahim185/Algeo02-23012/corpus"
	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/aibrahim185/Algeo02-23012/service"
	"github.com/aibrahim185/Algeo02-23012/util"
	"github.com/gorilla/mux"
	"github.com/mdobak/go-xerrors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

const (
	maxUploadBytes  = 32 << 20
	defaultPageSize = 12
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the search API",
	Long:  `Serves image and MIDI search over HTTP. Corpora are read from IMAGE_DIR and AUDIO_DIR on every request.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

// Server answers search requests against the media folders it was given.
type Server struct {
	svc      *service.Service
	imageDir string
	audioDir string
	width    int
	height   int
	logger   *slog.Logger
}

func NewServer(svc *service.Service, imageDir, audioDir string, width, height int) *Server {
	return &Server{
		svc:      svc,
		imageDir: imageDir,
		audioDir: audioDir,
		width:    width,
		height:   height,
		logger:   util.GetLogger(),
	}
}

// Handler routes the API and wraps it with CORS for the given origins.
func (s *Server) Handler(origins []string) http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/", s.HandleHello).Methods(http.MethodGet)
	router.HandleFunc("/images/search", s.HandleImageSearch).Methods(http.MethodPost)
	router.HandleFunc("/audio/search", s.HandleAudioSearch).Methods(http.MethodPost)
	router.HandleFunc("/results/last", s.HandleLast).Methods(http.MethodGet)
	router.HandleFunc("/results/{id}", s.HandleResults).Methods(http.MethodGet)

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
	}).Handler(router)
}

func (s *Server) HandleHello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) HandleImageSearch(w http.ResponseWriter, r *http.Request) {
	query, err := readUpload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	width, err := formInt(r, "width", s.width)
	if err != nil {
		s.writeError(w, err)
		return
	}
	height, err := formInt(r, "height", s.height)
	if err != nil {
		s.writeError(w, err)
		return
	}
	k, err := formInt(r, "k", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	paths, err := gatherCorpus(s.imageDir, constants.ImageExtensions)
	if err != nil {
		s.writeError(w, err)
		return
	}
	items, unreadable, err := corpus.LoadFiles(r.Context(), paths, constants.GetWorkers())
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.FitAndRankImages(r.Context(), items, query, width, height, k)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res.Skipped += unreadable
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) HandleAudioSearch(w http.ResponseWriter, r *http.Request) {
	query, err := readUpload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	k, err := formInt(r, "k", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	paths, err := gatherCorpus(s.audioDir, constants.MidiExtensions)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.RankAudio(r.Context(), paths, query, k)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) HandleResults(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		s.writeError(w, err)
		return
	}
	size, err := queryInt(r, "size", defaultPageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.svc.Page(mux.Vars(r)["id"], page, size)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleLast returns the whole of the most recent ranking.
func (s *Server) HandleLast(w http.ResponseWriter, r *http.Request) {
	res, ok := s.svc.Last()
	if !ok {
		s.writeError(w, xerrors.New(fmt.Errorf("%w: no search has run yet", model.ErrNotFound)))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func gatherCorpus(dir string, exts []string) ([]string, error) {
	paths, err := corpus.Gather(dir, exts, 0)
	if err != nil {
		return nil, xerrors.New(fmt.Errorf("%w: %v", model.ErrEmptyCorpus, err))
	}
	return paths, nil
}

func readUpload(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, xerrors.New(fmt.Errorf("%w: expected a multipart form: %v", model.ErrInvalidArgument, err))
	}
	f, _, err := r.FormFile("query")
	if err != nil {
		return nil, xerrors.New(fmt.Errorf("%w: missing query file: %v", model.ErrInvalidArgument, err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return data, nil
}

func formInt(r *http.Request, key string, fallback int) (int, error) {
	return parseInt(key, r.FormValue(key), fallback)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	return parseInt(key, r.URL.Query().Get(key), fallback)
}

func parseInt(key, raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, xerrors.New(fmt.Errorf("%w: %s must be an integer, got %q", model.ErrInvalidArgument, key, raw))
	}
	return v, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidArgument), errors.Is(err, model.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrEmptyCorpus), errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNotFitted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.Any("error", err))
	} else {
		s.logger.Debug("request rejected", slog.Int("status", status), slog.Any("error", err))
	}
	writeJSON(w, status, model.ErrorResponse{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func serve() error {
	logger := util.GetLogger()
	server := NewServer(
		newService(nil),
		constants.GetImageDir(),
		constants.GetAudioDir(),
		constants.GetImageWidth(),
		constants.GetImageHeight(),
	)

	addr := ":" + constants.GetPort()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(constants.GetCorsOrigins()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("listening", slog.String("addr", addr),
		slog.String("images", server.imageDir), slog.String("audio", server.audioDir))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return xerrors.New(err)
	}
	return nil
}
