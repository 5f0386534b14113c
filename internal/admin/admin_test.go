package admin

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

type AdminTestSuite struct {
	suite.Suite
	reg   *prometheus.Registry
	srv   *Server
	ready atomic.Bool
}

func (s *AdminTestSuite) SetupTest() {
	s.reg = prometheus.NewRegistry()
	s.srv = New("127.0.0.1:0", s.reg)
	s.ready.Store(false)
	s.srv.AddReadinessCheck("shmem-init", func() error {
		if !s.ready.Load() {
			return errors.New("not initialized")
		}
		return nil
	})
}

func (s *AdminTestSuite) get(path string) (int, string) {
	rec := httptest.NewRecorder()
	s.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	s.Require().NoError(err)
	return rec.Code, string(body)
}

func (s *AdminTestSuite) TestLive() {
	code, _ := s.get("/live")
	s.Equal(http.StatusOK, code)
}

func (s *AdminTestSuite) TestReadyFollowsCheck() {
	code, _ := s.get("/ready")
	s.Equal(http.StatusServiceUnavailable, code)

	s.ready.Store(true)
	code, _ = s.get("/ready")
	s.Equal(http.StatusOK, code)
}

func (s *AdminTestSuite) TestMetricsIncludeHealthGauges() {
	s.get("/ready")
	code, body := s.get("/metrics")
	s.Equal(http.StatusOK, code)
	s.Contains(body, "xshmem_healthcheck_status")
}

func (s *AdminTestSuite) TestStartAndShutdown() {
	s.Require().NoError(s.srv.Start())
	resp, err := http.Get("http://" + s.srv.Addr() + "/live")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.NoError(s.srv.Shutdown(context.Background()))
}

func TestAdminTestSuite(t *testing.T) {
	suite.Run(t, new(AdminTestSuite))
}
