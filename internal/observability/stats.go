package observability

import (
	"sync"
	"sync/atomic"
)

type StatsSnapshot struct {
	PagesFetched        uint64            `json:"pages_fetched"`
	BrowserFallbacks    uint64            `json:"browser_fallbacks"`
	RecordsDone         uint64            `json:"records_done"`
	RecordsFailed       uint64            `json:"records_failed"`
	TranslationCalls    uint64            `json:"translation_calls"`
	TranslationWarnings uint64            `json:"translation_warnings"`
	ErrorsTotal         uint64            `json:"errors_total"`
	URLSecondsAvg       float64           `json:"url_seconds_avg"`
	PagesByStrategy     map[string]uint64 `json:"pages_by_strategy,omitempty"`
	ErrorsByType        map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent   map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	pagesFetched        uint64
	browserFallbacks    uint64
	recordsDone         uint64
	recordsFailed       uint64
	translationCalls    uint64
	translationWarnings uint64
	errorsTotal         uint64

	urlCount uint64
	urlNanos uint64

	statsMu           sync.Mutex
	pagesByStrategy   = map[string]uint64{}
	errorsByType      = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
)

func IncPagesFetched(strategy string) {
	if strategy == "" {
		strategy = "unknown"
	}
	atomic.AddUint64(&pagesFetched, 1)
	statsMu.Lock()
	pagesByStrategy[strategy]++
	statsMu.Unlock()
}

func IncBrowserFallback() {
	atomic.AddUint64(&browserFallbacks, 1)
}

func IncRecordDone() {
	atomic.AddUint64(&recordsDone, 1)
}

func IncRecordFailed() {
	atomic.AddUint64(&recordsFailed, 1)
}

func IncTranslationCall() {
	atomic.AddUint64(&translationCalls, 1)
}

func IncTranslationWarning() {
	atomic.AddUint64(&translationWarnings, 1)
}

func ObserveURLDuration(seconds float64) {
	if seconds <= 0 {
		return
	}
	atomic.AddUint64(&urlCount, 1)
	atomic.AddUint64(&urlNanos, uint64(seconds*1e9))
}

func IncError(errType, component string) {
	if errType == "" {
		errType = "unknown"
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	strategyCopy := copyMap(pagesByStrategy)
	errorsTypeCopy := copyMap(errorsByType)
	errorsComponentCopy := copyMap(errorsByComponent)
	statsMu.Unlock()

	count := atomic.LoadUint64(&urlCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&urlNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		PagesFetched:        atomic.LoadUint64(&pagesFetched),
		BrowserFallbacks:    atomic.LoadUint64(&browserFallbacks),
		RecordsDone:         atomic.LoadUint64(&recordsDone),
		RecordsFailed:       atomic.LoadUint64(&recordsFailed),
		TranslationCalls:    atomic.LoadUint64(&translationCalls),
		TranslationWarnings: atomic.LoadUint64(&translationWarnings),
		ErrorsTotal:         atomic.LoadUint64(&errorsTotal),
		URLSecondsAvg:       avg,
		PagesByStrategy:     strategyCopy,
		ErrorsByType:        errorsTypeCopy,
		ErrorsByComponent:   errorsComponentCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
