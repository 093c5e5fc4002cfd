package metrics

import (
	"strings"
	"testing"

	"lsys/catalog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounts map[catalog.State]int

func (f fixedCounts) Counts() map[catalog.State]int { return f }

func TestRegisterCatalogue(t *testing.T) {
	reg := prometheus.NewRegistry()
	counts := fixedCounts{catalog.Available: 3, catalog.Reserved: 1, catalog.Borrowed: 0}

	require.NoError(t, RegisterCatalogue(reg, fixedCounts{catalog.Available: 9}))
	require.NoError(t, RegisterCatalogue(reg, counts))

	expected := `
# HELP lsys_books Number of catalogue copies, by availability state.
# TYPE lsys_books gauge
lsys_books{state="available"} 3
lsys_books{state="borrowed"} 0
lsys_books{state="reserved"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lsys_books"))
}

func TestReservationsTotal(t *testing.T) {
	before := testutil.ToFloat64(ReservationsTotal.WithLabelValues("reserved"))
	ReservationsTotal.WithLabelValues("reserved").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ReservationsTotal.WithLabelValues("reserved")))
}
