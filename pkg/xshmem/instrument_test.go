package xshmem

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/suite"

	"github.com/srediag/xshmem/api"
)

type InstrumentTestSuite struct {
	suite.Suite
	reg     *prometheus.Registry
	metrics *Metrics
}

func (s *InstrumentTestSuite) SetupTest() {
	s.reg = prometheus.NewRegistry()
	m, err := NewMetrics(s.reg)
	s.Require().NoError(err)
	s.metrics = m
}

func (s *InstrumentTestSuite) counter(vec *prometheus.CounterVec, lib, op string) float64 {
	var m dto.Metric
	s.Require().NoError(vec.WithLabelValues(lib, op).Write(&m))
	return m.GetCounter().GetValue()
}

func (s *InstrumentTestSuite) TestCountsOperations() {
	f := &fakeBackend{lib: api.ISHMEM}
	h := Instrument(f, WithMetrics(s.metrics))

	s.Require().NoError(h.Init())
	p, err := h.Malloc(16)
	s.Require().NoError(err)
	s.Require().NoError(h.Put(p, []int32{1}, 0))
	s.Require().NoError(h.Put(p, []int32{2}, 0))
	s.Require().NoError(h.Free(p))

	s.Equal(1.0, s.counter(s.metrics.ops, "ISHMEM", "init"))
	s.Equal(2.0, s.counter(s.metrics.ops, "ISHMEM", "put"))
	s.Equal(0.0, s.counter(s.metrics.errors, "ISHMEM", "put"))
	s.Equal([]string{"init", "malloc", "put", "put", "free"}, f.Calls())

	families, err := s.reg.Gather()
	s.Require().NoError(err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	s.Contains(names, "xshmem_operations_total")
	s.Contains(names, "xshmem_operation_duration_seconds")
}

func (s *InstrumentTestSuite) TestErrorsPassThrough() {
	putErr := &api.NativeError{Op: "ishmem_int_put", Code: 3}
	f := &fakeBackend{lib: api.ISHMEM, putErr: putErr}
	h := Instrument(f, WithMetrics(s.metrics))

	err := h.Put(nil, []int32{1}, 1)
	s.Same(putErr, err)
	s.Equal(1.0, s.counter(s.metrics.errors, "ISHMEM", "put"))
}

func (s *InstrumentTestSuite) TestWithoutOptionsOnlyForwards() {
	f := &fakeBackend{lib: api.SHMEM}
	h := Instrument(f)

	s.Equal(api.SHMEM, h.Library())
	s.Same(f, h.Unwrap())
	s.Equal(0, h.MyPE())
	s.Require().NoError(h.BarrierAll())
	s.ErrorIs(h.InitAttr(&api.InitAttr{}), api.ErrInitAttrUnsupported)
	s.Equal([]string{"my_pe", "barrier_all"}, f.Calls())
}

func (s *InstrumentTestSuite) TestDuplicateRegistration() {
	_, err := NewMetrics(s.reg)
	var are prometheus.AlreadyRegisteredError
	s.True(errors.As(err, &are))
}

func TestInstrumentTestSuite(t *testing.T) {
	suite.Run(t, new(InstrumentTestSuite))
}
