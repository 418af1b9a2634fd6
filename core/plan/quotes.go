package plan

import (
	"math/rand"
	"sync"
	"time"
)

var Quotes = []string{
	"Success is not final, failure is not fatal: it is the courage to continue that counts.",
	"The difference between try and triumph is just a little umph!",
	"The only way to do great work is to love what you do.",
	"Your time as a CA student is your greatest investment.",
	"Small progress is still progress.",
	"The expert in anything was once a beginner.",
	"Success is built one page at a time.",
	"Your future self will thank you for studying today.",
}

// QuoteSelector picks motivational quotes uniformly at random. It is safe for concurrent use.
type QuoteSelector struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	quotes []string
}

// NewQuoteSelector returns a selector over quotes (Quotes if none given).
// A nil src seeds from the current time.
func NewQuoteSelector(src rand.Source, quotes ...string) *QuoteSelector {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	if len(quotes) == 0 {
		quotes = Quotes
	}
	return &QuoteSelector{rnd: rand.New(src), quotes: quotes}
}

func (qs *QuoteSelector) Pick() string {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	return qs.quotes[qs.rnd.Intn(len(qs.quotes))]
}
