package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/metrics"

	httpMock "github.com/vadimbarashkov/shortlink/mocks/http"
)

const baseURL = "https://sho.rt/"

type HandlersTestSuite struct {
	suite.Suite
	logger         *httplog.Logger
	urlUseCaseMock *httpMock.MockUrlUseCase
	server         *httptest.Server
	e              *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.urlUseCaseMock = httpMock.NewMockUrlUseCase(suite.T())

	reg := prometheus.NewRegistry()
	metrics.New(reg).URLShortened()

	router := NewRouter(suite.logger, suite.urlUseCaseMock, baseURL, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.Default(suite.T(), suite.server.URL)
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.urlUseCaseMock.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) TestPing() {
	suite.Run("success", func() {
		suite.e.GET("/ping").
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong")
	})
}

func (suite *HandlersTestSuite) TestMetrics() {
	suite.Run("success", func() {
		suite.e.GET("/metrics").
			Expect().
			Status(http.StatusOK).
			Body().Contains("shortlink_urls_shortened_total 1")
	})
}

func (suite *HandlersTestSuite) TestDocs() {
	suite.Run("swagger spec", func() {
		resp := suite.e.GET("/docs/swagger.yml").
			Expect().
			Status(http.StatusOK)

		resp.Header("Content-Type").IsEqual("application/yaml")
		resp.Body().Contains("/metadata/{id}")
	})
}

func (suite *HandlersTestSuite) TestShortenURL() {
	const path = "/shorten"

	suite.Run("invalid url", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "not a url").
			Once().
			Return(nil, fmt.Errorf("shorten: %w", &entity.InvalidURLError{
				Input:  "not a url",
				Reason: "relative URL without a base",
			}))

		suite.e.POST(path).
			WithText("not a url").
			Expect().
			Status(http.StatusBadRequest).
			Text().IsEqual("relative URL without a base")
	})

	suite.Run("insert failed", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, fmt.Errorf("shorten: %w: %w", entity.ErrInsertFailed, entity.ErrMaxRetriesExceeded))

		suite.e.POST(path).
			WithText("https://example.com").
			Expect().
			Status(http.StatusBadRequest).
			Text().IsEqual("insert failed: maximum retries exceeded for generating short code")
	})

	suite.Run("insert failed with store diagnostic", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, fmt.Errorf("shorten: %w: %w", entity.ErrInsertFailed, &entity.StoreError{
				Diagnostic: "value too long for type text",
				Err:        errors.New("pg error"),
			}))

		suite.e.POST(path).
			WithText("https://example.com").
			Expect().
			Status(http.StatusBadRequest).
			Text().IsEqual("insert failed: value too long for type text")
	})

	suite.Run("store unavailable", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, entity.ErrStoreUnavailable)

		suite.e.POST(path).
			WithText("https://example.com").
			Expect().
			Status(http.StatusServiceUnavailable)
	})

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com").
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.POST(path).
			WithText("https://example.com").
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("request body too large", func() {
		suite.e.POST(path).
			WithText("https://example.com/" + strings.Repeat("a", maxRequestBodyBytes)).
			Expect().
			Status(http.StatusRequestEntityTooLarge)
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com/page?x=1").
			Once().
			Return(&entity.URL{
				ShortCode:   "ab12Cd",
				OriginalURL: "https://example.com/page?x=1",
			}, nil)

		suite.e.POST(path).
			WithText("https://example.com/page?x=1").
			Expect().
			Status(http.StatusCreated).
			Text().IsEqual("https://sho.rt/ab12Cd")
	})
}

func (suite *HandlersTestSuite) TestShortenURLFromJSON() {
	const path = "/shorten"

	suite.Run("empty request body", func() {
		resp := suite.e.POST(path).
			WithHeader("Content-Type", "application/json").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "empty request body")
	})

	suite.Run("invalid request body", func() {
		resp := suite.e.POST(path).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "invalid request body")
	})

	suite.Run("validation error", func() {
		resp := suite.e.POST(path).
			WithJSON(map[string]string{"url": ""}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.ContainsKey("message")
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "url").
			ContainsKey("message")
	})

	suite.Run("invalid url", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "/relative").
			Once().
			Return(nil, &entity.InvalidURLError{Input: "/relative", Reason: "relative URL without a base"})

		resp := suite.e.POST(path).
			WithJSON(map[string]string{"url": "/relative"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "relative URL without a base")
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("ShortenURL", mock.Anything, "https://example.com").
			Once().
			Return(&entity.URL{
				ShortCode:   "ab12Cd",
				OriginalURL: "https://example.com",
			}, nil)

		suite.e.POST(path).
			WithJSON(map[string]string{"url": "https://example.com"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object().
			IsEqual(map[string]string{"url": "https://sho.rt/ab12Cd"})
	})
}

func (suite *HandlersTestSuite) TestResolveShortCode() {
	suite.Run("url not found", func() {
		suite.urlUseCaseMock.
			On("ResolveShortCode", mock.Anything, "ab12Cd").
			Once().
			Return(nil, fmt.Errorf("resolve: %w", entity.ErrURLNotFound))

		suite.e.GET("/ab12Cd").
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusNotFound).
			Text().IsEqual(`Entry "ab12Cd" not found.`)
	})

	suite.Run("percent-encoded short code", func() {
		for path, shortCode := range map[string]string{"/%FF": "\xff", "/%00": "\x00"} {
			suite.urlUseCaseMock.
				On("ResolveShortCode", mock.Anything, shortCode).
				Once().
				Return(nil, entity.ErrURLNotFound)

			suite.e.GET(path).
				WithRedirectPolicy(httpexpect.DontFollowRedirects).
				Expect().
				Status(http.StatusNotFound)
		}
	})

	suite.Run("store unavailable", func() {
		suite.urlUseCaseMock.
			On("ResolveShortCode", mock.Anything, "ab12Cd").
			Once().
			Return(nil, entity.ErrStoreUnavailable)

		suite.e.GET("/ab12Cd").
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusServiceUnavailable)
	})

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("ResolveShortCode", mock.Anything, "ab12Cd").
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET("/ab12Cd").
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("ResolveShortCode", mock.Anything, "ab12Cd").
			Once().
			Return(&entity.URL{
				ShortCode:   "ab12Cd",
				OriginalURL: "https://example.com/page?x=1",
			}, nil)

		suite.e.GET("/ab12Cd").
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com/page?x=1")
	})
}

func (suite *HandlersTestSuite) TestGetMetadata() {
	const path = "/metadata/%s"

	suite.Run("url not found", func() {
		suite.urlUseCaseMock.
			On("GetMetadata", mock.Anything, "ab12Cd").
			Once().
			Return(nil, entity.ErrURLNotFound)

		suite.e.GET(fmt.Sprintf(path, "ab12Cd")).
			Expect().
			Status(http.StatusNotFound).
			Text().IsEqual(`Entry "ab12Cd" not found.`)
	})

	suite.Run("percent-encoded short code", func() {
		for path, shortCode := range map[string]string{"/metadata/%FF": "\xff", "/metadata/%00": "\x00"} {
			suite.urlUseCaseMock.
				On("GetMetadata", mock.Anything, shortCode).
				Once().
				Return(nil, entity.ErrURLNotFound)

			suite.e.GET(path).
				Expect().
				Status(http.StatusNotFound)
		}
	})

	suite.Run("server error", func() {
		suite.urlUseCaseMock.
			On("GetMetadata", mock.Anything, "ab12Cd").
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET(fmt.Sprintf(path, "ab12Cd")).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("success", func() {
		suite.urlUseCaseMock.
			On("GetMetadata", mock.Anything, "ab12Cd").
			Once().
			Return(&entity.Metadata{
				ShortCode:   "ab12Cd",
				OriginalURL: "https://example.com/page?x=1",
				Hits:        1,
			}, nil)

		resp := suite.e.GET(fmt.Sprintf(path, "ab12Cd")).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("id", "ab12Cd")
		resp.HasValue("url", "https://example.com/page?x=1")
		resp.HasValue("hits", 1)
		resp.NotContainsKey("updated_at")
	})
}

func TestURLHandler(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
