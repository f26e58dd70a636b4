package intent

import (
	"regexp"
	"strings"

	"github.com/stayline/concierge/pkg/logging"
)

// Category is the classified purpose of a single guest message.
type Category string

const (
	Housekeeping       Category = "housekeeping"
	CancelBooking      Category = "cancel_booking"
	ModifyBooking      Category = "modify_booking"
	StartBooking       Category = "start_booking"
	SelectRoom         Category = "select_room"
	CheckAvailability  Category = "check_availability"
	AmenitiesInquiry   Category = "amenities_inquiry"
	PricingInquiry     Category = "pricing_inquiry"
	LocationDirections Category = "location_directions"
	Chitchat           Category = "chitchat"
)

const (
	patternWeight   = 0.7
	selectRoomBoost = 0.5
	stickyFlowBoost = 0.2
	scoreThreshold  = 0.5
)

// Snapshot carries the per-session context the classifier is allowed to see.
// It is a value copy; classification never mutates dialogue state.
type Snapshot struct {
	AwaitingRoomChoice bool
	HasSlots           bool
}

// Result reports the winning category along with scoring detail for logging.
type Result struct {
	Category Category
	Score    float64
	Matches  int
}

// Classifier scores guest messages against weighted regex patterns per
// category, then applies dialogue-context adjustments. Categories are
// registered in a fixed order; on equal scores the first-registered
// category wins.
type Classifier struct {
	logger     *logging.Logger
	categories []Category
	patterns   map[Category][]*regexp.Regexp
}

var digitRe = regexp.MustCompile(`\d`)

// NewClassifier builds the pattern table. Chitchat registers no patterns;
// it is the below-threshold fallback.
func NewClassifier(logger *logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.Default()
	}

	c := &Classifier{
		logger:   logger,
		patterns: make(map[Category][]*regexp.Regexp),
	}

	c.register(Housekeeping,
		`\btowels?\b`,
		`\bhousekeep`,
		`\blaundry\b`,
		`\bclean(?:ing)?\s+(?:my\s+|the\s+)?room\b`,
		`\b(?:fix|repair|broken|leak(?:ing)?|not\s+working)\b`,
		`\bextra\s+(?:pillows?|blankets?|beds?|towels?)\b`,
		`\broom\s+service\b`,
		`\btoiletr`,
	)
	c.register(CancelBooking,
		`\bcancel\b`,
		`\bcancell?ation\b`,
		`\bcall\s+off\s+(?:my\s+|the\s+)?(?:booking|reservation|stay)\b`,
		`\bno\s+longer\s+(?:coming|staying|need\s+the\s+room)\b`,
	)
	c.register(ModifyBooking,
		`\b(?:change|modify|reschedule|shift|move)\b.*\b(?:booking|reservation|dates?|stay)\b`,
		`\bextend\s+(?:my\s+|the\s+)?stay\b`,
		`\bpostpone\b`,
		`\bdifferent\s+dates\b`,
	)
	c.register(StartBooking,
		`\bbook(?:ing)?\b`,
		`\breserve\b`,
		`\bmake\s+a\s+reservation\b`,
		`\bcheck[\s-]?in\b`,
		`\bneed\s+a\s+room\b`,
		`\bwant\s+to\s+stay\b`,
		`\bstay(?:ing)?\s+from\b`,
		// A dated from-phrase is a booking opener even without the verb:
		// "my name is Jane, from 2025-12-01 to 2025-12-05, 2 guests".
		`\bfrom\s+\d{4}-\d{2}-\d{2}\b`,
	)
	c.register(SelectRoom,
		`\broom\s*(?:type\s*)?(?:id\s*)?#?\d+\b`,
		`\b(?:take|choose|select|pick)\b.*\broom\b`,
		`\bi\s+want\s+(?:room|option|the)\b`,
		`\boption\s+\d+\b`,
		`^\s*#?\d+\s*$`,
	)
	c.register(CheckAvailability,
		`\bavailab(?:le|ility)\b`,
		`\bany\s+rooms?\b`,
		`\bvacanc(?:y|ies)\b`,
		`\brooms?\s+(?:free|open|left)\b`,
		`\bdo\s+you\s+have\b.*\broom\b`,
	)
	c.register(AmenitiesInquiry,
		`\bamenit(?:y|ies)\b`,
		`\bwi-?fi\b|\binternet\b`,
		`\bparking\b`,
		`\bbreakfast\b|\bdining\b|\bkitchen\b`,
		`\bpool\b|\bgym\b`,
		`\bpets?\s+allowed\b|\bsmoking\b`,
		`\bfacilit(?:y|ies)\b`,
	)
	c.register(PricingInquiry,
		`\bpric(?:e|es|ing)\b`,
		`\bcost\b|\brates?\b|\btariff\b`,
		`\bhow\s+much\b`,
		`\bcharges?\b`,
		`\bdiscounts?\b`,
	)
	c.register(LocationDirections,
		`\bwhere\s+(?:are\s+you|is\s+the\s+(?:hotel|property))\b`,
		`\bdirections?\b`,
		`\baddress\b`,
		`\bhow\s+(?:do\s+i|to)\s+(?:get|reach)\b`,
		`\bnear(?:est|by)?\s+(?:metro|airport|station|beach)\b`,
		`\bdistance\b`,
		`\blocation\b`,
	)
	c.register(Chitchat)

	return c
}

func (c *Classifier) register(category Category, patterns ...string) {
	c.categories = append(c.categories, category)
	for _, p := range patterns {
		c.patterns[category] = append(c.patterns[category], regexp.MustCompile(p))
	}
}

// Classify scores the message against every category and returns the winner,
// or Chitchat when the best score stays below the confidence threshold.
func (c *Classifier) Classify(message string, snap Snapshot) Result {
	message = strings.ToLower(strings.TrimSpace(message))

	scores := make(map[Category]float64, len(c.categories))
	matches := make(map[Category]int, len(c.categories))

	for _, category := range c.categories {
		for _, re := range c.patterns[category] {
			if re.MatchString(message) {
				scores[category] += patternWeight
				matches[category]++
			}
		}
	}

	// Context adjustments from the dialogue snapshot.
	if snap.AwaitingRoomChoice && digitRe.MatchString(message) {
		scores[SelectRoom] += selectRoomBoost
	}
	if snap.HasSlots {
		scores[StartBooking] += stickyFlowBoost
	}

	best := Result{Category: Chitchat}
	for _, category := range c.categories {
		// Strictly greater keeps the first-registered category on ties.
		if scores[category] > best.Score {
			best = Result{
				Category: category,
				Score:    scores[category],
				Matches:  matches[category],
			}
		}
	}

	if best.Score < scoreThreshold {
		return Result{Category: Chitchat, Score: best.Score}
	}

	c.logger.Debug("classified guest message",
		"category", best.Category,
		"score", best.Score,
		"pattern_matches", best.Matches,
	)
	return best
}
