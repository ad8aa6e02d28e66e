package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimarket/internal/adapter/api"
	"minimarket/internal/adapter/api/middleware"
	"minimarket/internal/domain/entity"
	"minimarket/internal/platform/metrics"
	"minimarket/internal/usecase"
)

const placeholderImage = "https://placeholder.test/product.png"

var (
	alice = &entity.Identity{ID: "alice", Email: "alice@example.com", Name: "Alice"}
	bob   = &entity.Identity{ID: "bob", Email: "bob@example.com", Name: "Bob"}
)

type testServer struct {
	e        *echo.Echo
	products *memProducts
	wishlist *memWishlist
	reviews  *memReviews
	profiles *memProfiles
}

func newTestServer(products ...*entity.Product) *testServer {
	s := &testServer{
		products: newMemProducts(products...),
		reviews:  &memReviews{rows: map[string]*entity.Review{}},
		profiles: &memProfiles{rows: map[string]*entity.Profile{
			"alice": {ID: "alice", Name: "Alice", Phone: "9876543210"},
			"bob":   {ID: "bob", Name: "Bob", Phone: "9123456789"},
		}},
	}
	s.wishlist = &memWishlist{rows: map[string]*entity.WishlistItem{}, products: s.products}

	m := metrics.NewMetricsManager("test")
	authHandler := NewAuthHandler(usecase.NewAuthUseCase(s.profiles, nil, nil, ""))
	productHandler := NewProductHandler(
		usecase.NewCatalogUseCase(s.products, s.wishlist, nopStorage{}, m, placeholderImage),
		usecase.NewListingUseCase(s.products, nopStorage{}, m, usecase.ListingOptions{}),
		usecase.NewProductDetailUseCase(s.products, s.profiles, s.wishlist, "91", placeholderImage),
	)
	reviewHandler := NewReviewHandler(usecase.NewReviewUseCase(s.reviews, m))
	wishlistHandler := NewWishlistHandler(usecase.NewWishlistUseCase(s.wishlist, m))
	profileHandler := NewProfileHandler(usecase.NewProfileUseCase(s.profiles, s.products, nopStorage{}, m))

	auth := middleware.NewAuthMiddleware(staticSessions{"alice-token": alice, "bob-token": bob})

	e := echo.New()
	e.Validator = api.NewValidator()

	e.POST("/v1/auth/signup", authHandler.SignUp)
	e.GET("/v1/auth/session", authHandler.Session, auth.Optional)

	e.GET("/v1/products", productHandler.ListProducts, auth.Optional)
	e.GET("/v1/products/:id", productHandler.GetProduct, auth.Optional)
	e.POST("/v1/products", productHandler.CreateProduct, auth.Authenticate)
	e.DELETE("/v1/products/:id", productHandler.DeleteProduct, auth.Authenticate)
	e.POST("/v1/products/:id/wishlist", productHandler.ToggleWishlist, auth.Authenticate)

	e.GET("/v1/products/:id/reviews", reviewHandler.ListReviews, auth.Optional)
	e.PUT("/v1/products/:id/reviews", reviewHandler.SubmitReview, auth.Authenticate)
	e.DELETE("/v1/products/:id/reviews/mine", reviewHandler.DeleteMyReview, auth.Authenticate)

	e.GET("/v1/wishlist", wishlistHandler.GetWishlist, auth.Authenticate)
	e.DELETE("/v1/wishlist/:entryId", wishlistHandler.RemoveFromWishlist, auth.Authenticate)

	e.GET("/v1/profile", profileHandler.GetProfile, auth.Authenticate)
	e.DELETE("/v1/profile/products/:id", profileHandler.DeleteProduct, auth.Authenticate)

	s.e = e
	return s
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, target, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func listing(id, owner, name string, price float64, age time.Duration) *entity.Product {
	return &entity.Product{ID: id, Name: name, Price: price, UserID: owner, CreatedAt: time.Now().Add(-age)}
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]Checker
		wantCode   int
		wantStatus string
	}{
		{
			name:       "all dependencies up",
			checks:     map[string]Checker{"firestore": CheckFunc(func(context.Context) error { return nil })},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name: "one dependency down",
			checks: map[string]Checker{
				"firestore": CheckFunc(func(context.Context) error { return nil }),
				"redis":     CheckFunc(func(context.Context) error { return errors.New("connection refused") }),
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if assert.NoError(t, NewHealthHandler(tt.checks).CheckHealth(c)) {
				assert.Equal(t, tt.wantCode, rec.Code)

				var body struct {
					Status       string            `json:"status"`
					Dependencies map[string]string `json:"dependencies"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantStatus, body.Status)
				assert.Len(t, body.Dependencies, len(tt.checks))
			}
		})
	}
}

func TestSession(t *testing.T) {
	s := newTestServer()

	t.Run("anonymous", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/v1/auth/session", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"user":null}`, string(env.Data))
	})

	t.Run("signed in", func(t *testing.T) {
		_, env := s.do(t, http.MethodGet, "/v1/auth/session", "alice-token", nil)
		assert.Contains(t, string(env.Data), `"id":"alice"`)
	})

	t.Run("unknown token passes through anonymous", func(t *testing.T) {
		_, env := s.do(t, http.MethodGet, "/v1/auth/session", "stale-token", nil)
		assert.JSONEq(t, `{"user":null}`, string(env.Data))
	})
}

func TestSignUp_RejectsShortName(t *testing.T) {
	s := newTestServer()

	rec, env := s.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"name":     "A",
		"phone":    "9876543210",
		"email":    "a@example.com",
		"password": "secret1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "Name must be at least 2 characters", env.Error.Message)
}

func TestAuthenticate(t *testing.T) {
	s := newTestServer()

	t.Run("missing token", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/v1/wishlist", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "LOGIN_REQUIRED", env.Error.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/v1/wishlist", "stale-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	})
}

func TestListProducts(t *testing.T) {
	s := newTestServer(
		listing("p1", "alice", "Wooden Chair", 150, 3*time.Hour),
		listing("p2", "bob", "Desk Lamp", 80, 2*time.Hour),
		listing("p3", "bob", "Office Chair", 300, time.Hour),
	)
	s.wishlist.rows[entity.WishlistItemID("alice", "p3")] = &entity.WishlistItem{ID: entity.WishlistItemID("alice", "p3"), UserID: "alice", ProductID: "p3"}

	type card struct {
		ID              string `json:"id"`
		DisplayImageURL string `json:"display_image_url"`
		CanManage       bool   `json:"can_manage"`
		InWishlist      bool   `json:"in_wishlist"`
	}
	list := func(t *testing.T, target, token string) (string, []card) {
		rec, env := s.do(t, http.MethodGet, target, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var data struct {
			State    string `json:"state"`
			Products []card `json:"products"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		return data.State, data.Products
	}
	ids := func(cards []card) []string {
		out := make([]string, 0, len(cards))
		for _, c := range cards {
			out = append(out, c.ID)
		}
		return out
	}

	t.Run("newest first for anonymous viewers", func(t *testing.T) {
		state, cards := list(t, "/v1/products", "")
		assert.Equal(t, "populated", state)
		assert.Equal(t, []string{"p3", "p2", "p1"}, ids(cards))
		for _, c := range cards {
			assert.False(t, c.CanManage)
			assert.False(t, c.InWishlist)
			assert.Equal(t, placeholderImage, c.DisplayImageURL)
		}
	})

	t.Run("search then sort", func(t *testing.T) {
		_, cards := list(t, "/v1/products?q=CHAIR&sort=price-low", "")
		assert.Equal(t, []string{"p1", "p3"}, ids(cards))
	})

	t.Run("no matches", func(t *testing.T) {
		state, cards := list(t, "/v1/products?q=sofa", "")
		assert.Equal(t, "no_results", state)
		assert.Empty(t, cards)
	})

	t.Run("viewer flags", func(t *testing.T) {
		_, cards := list(t, "/v1/products", "alice-token")
		byID := map[string]card{}
		for _, c := range cards {
			byID[c.ID] = c
		}
		assert.True(t, byID["p1"].CanManage)
		assert.False(t, byID["p2"].CanManage)
		assert.True(t, byID["p3"].InWishlist)
	})
}

func TestListProducts_EmptyCatalog(t *testing.T) {
	s := newTestServer()

	_, env := s.do(t, http.MethodGet, "/v1/products", "", nil)
	assert.JSONEq(t, `{"state":"empty","products":[]}`, string(env.Data))
}

func TestGetProduct(t *testing.T) {
	s := newTestServer(listing("p1", "bob", "Desk Lamp", 80, time.Hour))

	t.Run("visitor bumps views", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/v1/products/p1", "alice-token", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, string(env.Data), `"views":1`)
		assert.Contains(t, string(env.Data), "https://wa.me/919123456789")
		assert.Equal(t, 1, s.products.rows["p1"].Views)
	})

	t.Run("owner does not", func(t *testing.T) {
		s.do(t, http.MethodGet, "/v1/products/p1", "bob-token", nil)
		assert.Equal(t, 1, s.products.rows["p1"].Views)
	})

	t.Run("missing product", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/v1/products/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})
}

func TestCreateProduct(t *testing.T) {
	s := newTestServer()

	form := func(t *testing.T, fields map[string]string, image []byte) *http.Request {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range fields {
			require.NoError(t, w.WriteField(k, v))
		}
		if image != nil {
			part, err := w.CreateFormFile("image", "lamp.png")
			require.NoError(t, err)
			_, err = part.Write(image)
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/products", &buf)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		req.Header.Set(echo.HeaderAuthorization, "Bearer alice-token")
		return req
	}
	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

	t.Run("lists the product", func(t *testing.T) {
		rec, env := s.serve(t, form(t, map[string]string{"name": "Desk Lamp", "price": "80"}, png))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, usecase.MsgProductListed, env.Message)

		created := s.products.rows["new"]
		require.NotNil(t, created)
		assert.Equal(t, "alice", created.UserID)
		assert.True(t, strings.HasPrefix(created.ImageURL, "https://storage.test/products/"))
	})

	t.Run("price must be numeric", func(t *testing.T) {
		rec, env := s.serve(t, form(t, map[string]string{"name": "Desk Lamp", "price": "cheap"}, png))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Price must be a number", env.Error.Message)
	})

	t.Run("non-finite price rejected", func(t *testing.T) {
		for _, raw := range []string{"NaN", "Inf", "1e999"} {
			rec, env := s.serve(t, form(t, map[string]string{"name": "Desk Lamp", "price": raw}, png))
			assert.Equal(t, http.StatusBadRequest, rec.Code, raw)
			assert.Equal(t, "Price must be greater than 0", env.Error.Message, raw)
		}
	})

		t.Run("image required", func(t *testing.T) {
		rec, env := s.serve(t, form(t, map[string]string{"name": "Desk Lamp", "price": "80"}, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please fill all fields", env.Error.Message)
	})

	t.Run("non-image rejected", func(t *testing.T) {
		rec, env := s.serve(t, form(t, map[string]string{"name": "Desk Lamp", "price": "80"}, []byte("plain text, not a picture")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Only image files are allowed", env.Error.Message)
	})
}

func TestDeleteProduct(t *testing.T) {
	s := newTestServer(listing("p1", "bob", "Desk Lamp", 80, time.Hour))

	t.Run("requires confirmation", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodDelete, "/v1/products/p1", "bob-token", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, s.products.rows, "p1")
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		rec, env := s.do(t, http.MethodDelete, "/v1/products/p1?confirm=true", "alice-token", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "You can only delete your own products!", env.Error.Message)
	})

	t.Run("owner deletes", func(t *testing.T) {
		rec, env := s.do(t, http.MethodDelete, "/v1/products/p1?confirm=true", "bob-token", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, usecase.MsgProductDeleted, env.Message)
		assert.NotContains(t, s.products.rows, "p1")
	})
}

func TestToggleWishlist(t *testing.T) {
	s := newTestServer(listing("p1", "bob", "Desk Lamp", 80, time.Hour))

	_, env := s.do(t, http.MethodPost, "/v1/products/p1/wishlist", "alice-token", nil)
	assert.Equal(t, "Added to wishlist", env.Message)
	assert.JSONEq(t, `{"in_wishlist":true}`, string(env.Data))

	_, env = s.do(t, http.MethodGet, "/v1/wishlist", "alice-token", nil)
	assert.Contains(t, string(env.Data), `"count":1`)

	_, env = s.do(t, http.MethodPost, "/v1/products/p1/wishlist", "alice-token", nil)
	assert.Equal(t, "Removed from wishlist", env.Message)
	assert.JSONEq(t, `{"in_wishlist":false}`, string(env.Data))
	assert.Empty(t, s.wishlist.rows)
}

func TestRemoveFromWishlist_OtherUsersEntry(t *testing.T) {
	s := newTestServer(listing("p1", "bob", "Desk Lamp", 80, time.Hour))
	id := entity.WishlistItemID("bob", "p1")
	s.wishlist.rows[id] = &entity.WishlistItem{ID: id, UserID: "bob", ProductID: "p1"}

	rec, _ := s.do(t, http.MethodDelete, "/v1/wishlist/"+id, "alice-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, s.wishlist.rows, id)

	rec, env := s.do(t, http.MethodDelete, "/v1/wishlist/"+id, "bob-token", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.MsgWishlistRemoved, env.Message)
	assert.Empty(t, s.wishlist.rows)
}

func TestReviews(t *testing.T) {
	s := newTestServer(listing("p1", "bob", "Desk Lamp", 80, time.Hour))

	t.Run("anonymous cannot open the form", func(t *testing.T) {
		rec, env := s.do(t, http.MethodGet, "/v1/products/p1/reviews?form=open", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Please login to leave a review", env.Error.Message)
	})

	t.Run("submit then edit", func(t *testing.T) {
		_, env := s.do(t, http.MethodPut, "/v1/products/p1/reviews", "alice-token", map[string]interface{}{"rating": 4, "comment": " solid "})
		assert.Equal(t, usecase.MsgReviewSubmitted, env.Message)

		_, env = s.do(t, http.MethodPut, "/v1/products/p1/reviews", "alice-token", map[string]interface{}{"rating": 2})
		assert.Equal(t, usecase.MsgReviewUpdated, env.Message)
		assert.Contains(t, string(env.Data), `"count_label":"1 review"`)

		stored := s.reviews.rows[entity.ReviewID("p1", "alice")]
		require.NotNil(t, stored)
		assert.Equal(t, 2, stored.Rating)
		assert.Equal(t, "", stored.Comment)
	})

	t.Run("edit form is prefilled", func(t *testing.T) {
		_, env := s.do(t, http.MethodGet, "/v1/products/p1/reviews?form=open", "alice-token", nil)
		assert.Contains(t, string(env.Data), `"form":"edit"`)
	})

	t.Run("rating out of range", func(t *testing.T) {
		rec, _ := s.do(t, http.MethodPut, "/v1/products/p1/reviews", "bob-token", map[string]interface{}{"rating": 9})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete needs confirmation", func(t *testing.T) {
		rec, env := s.do(t, http.MethodDelete, "/v1/products/p1/reviews/mine", "alice-token", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Delete your review?", env.Error.Message)

		_, env = s.do(t, http.MethodDelete, "/v1/products/p1/reviews/mine?confirm=true", "alice-token", nil)
		assert.Equal(t, usecase.MsgReviewDeleted, env.Message)
		assert.Empty(t, s.reviews.rows)
	})
}

func TestProfile(t *testing.T) {
	s := newTestServer(
		listing("p1", "alice", "Wooden Chair", 150, 2*time.Hour),
		listing("p2", "alice", "Desk Lamp", 80, time.Hour),
		listing("p3", "bob", "Office Chair", 300, time.Hour),
	)
	s.products.rows["p1"].Views = 4
	s.products.rows["p2"].Views = 6

	_, env := s.do(t, http.MethodGet, "/v1/profile", "alice-token", nil)
	assert.Contains(t, string(env.Data), `"total_products":2`)
	assert.Contains(t, string(env.Data), `"total_views":10`)

	rec, _ := s.do(t, http.MethodDelete, "/v1/profile/products/p3?confirm=true", "alice-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, env = s.do(t, http.MethodDelete, "/v1/profile/products/p1?confirm=true", "alice-token", nil)
	assert.Equal(t, usecase.MsgProductDeleted, env.Message)
	assert.Contains(t, string(env.Data), `"total_products":1`)
	assert.Contains(t, string(env.Data), `"total_views":6`)
}
