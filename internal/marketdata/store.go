package marketdata

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Store loads and caches per-instrument series so repeated pair
// evaluations within one run parse each CSV once.
type Store struct {
	rootDir  string
	tolBp    int
	repairEx bool
	cache    *gocache.Cache
	logger   *zap.Logger
}

// NewStore creates a series store rooted at rootDir. When repairExDiv
// is set, series lacking an is_ex_div column get a reconstructed flag
// with the given basis-point tolerance.
func NewStore(rootDir string, repairExDiv bool, tolBp int, logger *zap.Logger) *Store {
	return &Store{
		rootDir:  rootDir,
		tolBp:    tolBp,
		repairEx: repairExDiv,
		cache:    gocache.New(15*time.Minute, 30*time.Minute),
		logger:   logger.With(zap.String("component", "marketdata")),
	}
}

// Get returns the series for a symbol, from cache when warm
func (st *Store) Get(symbol string) (*Series, error) {
	if val, found := st.cache.Get(symbol); found {
		if s, ok := val.(*Series); ok {
			return s, nil
		}
	}
	s, err := LoadCSV(st.rootDir, symbol)
	if err != nil {
		return nil, err
	}
	if st.repairEx && !s.HasExDiv {
		s.ReconstructExDiv(st.tolBp)
		st.logger.Debug("reconstructed ex-div flags",
			zap.String("symbol", symbol),
			zap.Int("tolerance_bp", st.tolBp))
	}
	st.cache.SetDefault(symbol, s)
	return s, nil
}

// GetMany loads a batch of symbols, skipping and reporting failures so
// one bad file does not abort a run.
func (st *Store) GetMany(symbols []string) (map[string]*Series, []string) {
	out := make(map[string]*Series, len(symbols))
	var failed []string
	for _, sym := range symbols {
		s, err := st.Get(sym)
		if err != nil {
			st.logger.Warn("skipping instrument",
				zap.String("symbol", sym),
				zap.Error(err))
			failed = append(failed, sym)
			continue
		}
		out[sym] = s
	}
	return out, failed
}

// Flush clears the cache
func (st *Store) Flush() {
	st.cache.Flush()
}
