package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddChildRows(t *testing.T) {
	before := testutil.ToFloat64(ChildRowsWritten.WithLabelValues("test_rows"))
	AddChildRows("test_rows", 3)
	AddChildRows("test_rows", 0)
	assert.Equal(t, before+3, testutil.ToFloat64(ChildRowsWritten.WithLabelValues("test_rows")))
}

func TestObserveRepositoryOutcomeLabel(t *testing.T) {
	ObserveRepository("metrics_test", time.Now(), nil)
	ObserveRepository("metrics_test", time.Now(), errors.New("boom"))

	// One series per outcome.
	require.GreaterOrEqual(t, testutil.CollectAndCount(RepositoryOperationDuration), 2)
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("GET", "/api/test", "200", 5*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(HTTPRequestDuration), 1)
}
