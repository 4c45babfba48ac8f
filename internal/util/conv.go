package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseQueryTime 解析 RFC3339 时间或日期，结束日期包含当天全天
func ParseQueryTime(s string, endOfDay bool, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateFormat, s, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: expected RFC3339 or %s", s, DateFormat)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
