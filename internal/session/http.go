package session

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"EcoFinds/internal/auth"
	"EcoFinds/internal/cart"
	"EcoFinds/internal/catalog"
	"EcoFinds/internal/listing"
	"EcoFinds/internal/predict"
	"EcoFinds/pkg/kit"
)

const maxUploadBytes = 10 << 20

type CategoryPredictor interface {
	PredictCategory(ctx context.Context, filename string, image io.Reader) (predict.Category, error)
}

type Server struct {
	Sessions  *Manager
	JWT       *auth.TokenMaker
	Predictor CategoryPredictor
	Log       *zap.Logger
}

type ctxKey string

const sessionKey ctxKey = "session"

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok
}

// Routes serves the signed-in marketplace API. Every route needs a bearer
// token whose session is still open.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireToken(s.JWT))
	r.Use(s.requireSession)

	r.Get("/nav", s.handleNav)
	r.Post("/nav/back", s.handleBack)
	r.Post("/nav/{page}", s.handleNavigate)

	r.Get("/cart", s.handleCart)
	r.Post("/cart/items", s.handleAddToCart)
	r.Delete("/cart/items/{id}", s.handleRemoveFromCart)
	r.Post("/checkout", s.handleCheckout)
	r.Get("/purchases", s.handlePurchases)

	r.Get("/listings", s.handleListings)
	r.Post("/listings", s.handleSubmitListing)
	r.Post("/listings/category", s.handleSuggestCategory)
	r.Put("/listings/{id}", s.handleEditListing)
	r.Delete("/listings/{id}", s.handleDeleteListing)

	r.Get("/dashboard", s.handleDashboard)
	r.Post("/signout", s.handleSignOut)

	return r
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
			return
		}
		sess, ok := s.Sessions.Get(claims.SessionID)
		if !ok || sess.User().ID != claims.UserID {
			kit.WriteError(w, r, http.StatusUnauthorized, "session expired", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func current(r *http.Request) *Session {
	sess, _ := FromContext(r.Context())
	return sess
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, current(r).Nav())
}

type navigateReq struct {
	ProductID string `json:"product_id"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePage(chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req navigateReq
	if err := decodeOptional(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	v, err := current(r).Navigate(r.Context(), page, req.ProductID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, v)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	v, err := current(r).Back()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, v)
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, current(r).Cart())
}

type addToCartReq struct {
	ProductID string `json:"product_id"`
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if err := kit.DecodeJSON(w, r, &req); err != nil || req.ProductID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id required", nil)
		return
	}

	sess := current(r)
	if _, err := sess.AddToCart(r.Context(), req.ProductID); err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, sess.Cart())
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sess := current(r)
	sess.RemoveFromCart(chi.URLParam(r, "id"))
	kit.WriteJSON(w, http.StatusOK, sess.Cart())
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, current(r).Checkout())
}

func (s *Server) handlePurchases(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, current(r).Purchases())
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	ps, err := current(r).UserListings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, ps)
}

func (s *Server) handleSubmitListing(w http.ResponseWriter, r *http.Request) {
	var in listing.Input
	if err := kit.DecodeJSON(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, err := current(r).SubmitListing(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) handleEditListing(w http.ResponseWriter, r *http.Request) {
	var in listing.Input
	if err := kit.DecodeJSON(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, err := current(r).EditListing(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	if err := current(r).DeleteListing(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type suggestionResp struct {
	Category   string           `json:"category"`
	Confidence float64          `json:"confidence"`
	Suggested  catalog.Category `json:"suggested,omitempty"`
	Known      bool             `json:"known"`
}

func (s *Server) handleSuggestCategory(w http.ResponseWriter, r *http.Request) {
	if s.Predictor == nil {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "predictor not configured", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "file required", nil)
		return
	}
	defer f.Close()

	got, err := s.Predictor.PredictCategory(r.Context(), hdr.Filename, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := suggestionResp{Category: got.Category, Confidence: got.Confidence}
	if c, ok := catalog.ParseCategory(got.Category); ok {
		resp.Suggested, resp.Known = c, true
	}
	kit.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := current(r).Dashboard(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, d)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.Sessions.Close(current(r).ID())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *listing.ValidationError

	switch {
	case errors.As(err, &ve):
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "validation failed", ve.Fields)
	case errors.Is(err, cart.ErrAlreadyInCart):
		kit.WriteError(w, r, http.StatusConflict, "already in cart", nil)
	case errors.Is(err, catalog.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
	case errors.Is(err, ErrForbidden):
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, ErrNoSelection):
		kit.WriteError(w, r, http.StatusConflict, "no product selected", nil)
	case errors.Is(err, ErrInvalidTransition):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrUnknownPage):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, predict.ErrNoImage):
		kit.WriteError(w, r, http.StatusBadRequest, "file required", nil)
	case errors.Is(err, predict.ErrUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "predictor unavailable", nil)
	case errors.Is(err, predict.ErrBadStatus), errors.Is(err, predict.ErrBadResponse):
		kit.WriteError(w, r, http.StatusBadGateway, "predictor error", nil)
	default:
		if s.Log != nil {
			s.Log.Error("session request failed", zap.Error(err), zap.String("path", r.URL.Path))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

// decodeOptional is kit.DecodeJSON that treats an empty body as {}.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := kit.DecodeJSON(w, r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
