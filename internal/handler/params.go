package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/cineops/showtime-api/pkg/errors"
)

// Accepted timestamp layouts for query parameters. Date-only values resolve
// to midnight UTC.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"}

func parseTimeParam(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unrecognized time value %q", value))
}

func optionalTimeParam(c *gin.Context, name string) (*time.Time, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	t, err := parseTimeParam(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback))); err == nil {
		return v
	}
	return fallback
}
