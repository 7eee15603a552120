package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/lorehub/lore/internal/domain"
)

// Clock reports the current time. The now func is injectable for tests.
type Clock struct {
	now func() time.Time
}

// NewClock creates the bundled clock tool.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

func (c *Clock) Name() string { return "current_time" }

func (c *Clock) Description() string {
	return "Returns the current date and time (RFC 3339). UTC unless a timezone is given."
}

func (c *Clock) Schema() Schema {
	return Schema{
		Type: "object",
		Properties: map[string]Property{
			"timezone": {Type: "string", Description: "Optional IANA timezone name, e.g. Europe/Berlin."},
		},
	}
}

func (c *Clock) Execute(_ context.Context, input Input) (string, error) {
	loc := time.UTC
	if tz, ok := stringParam(input, "timezone", "raw"); ok {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return "", fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidInput, tz)
		}
		loc = parsed
	}
	return c.now().In(loc).Format(time.RFC3339), nil
}
