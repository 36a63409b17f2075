package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/database"
)

var Statistics = new(StatisticsService)

type StatisticsService struct{}

// FeedbackCounts 后台概览计数
type FeedbackCounts struct {
	Total      int64 `json:"total"`
	New        int64 `json:"new"`
	InProgress int64 `json:"in_progress"`
	Resolved   int64 `json:"resolved"`
	Testing    int64 `json:"testing"`
	WontFix    int64 `json:"wont_fix"`
	Comments   int64 `json:"comments"`
	Bugs       int64 `json:"bugs"`
}

// TrendPoint 某个时间点的提交数量
type TrendPoint struct {
	TimePoint string `json:"time_point"` // 如 2023-01-01 或 2023-01 或 2023
	Submitted int64  `json:"submitted"`
	Resolved  int64  `json:"resolved"`
}

// 时间维度类型
type TimeDimension string

const (
	DimensionDay   TimeDimension = "day"
	DimensionMonth TimeDimension = "month"
	DimensionYear  TimeDimension = "year"
)

func (d TimeDimension) layout() string {
	switch d {
	case DimensionMonth:
		return "2006-01"
	case DimensionYear:
		return "2006"
	default:
		return "2006-01-02"
	}
}

// Counts 按状态和类型统计反馈数量
func (s *StatisticsService) Counts(ctx context.Context) (*FeedbackCounts, error) {
	type groupCount struct {
		Status string
		Count  int64
	}

	var byStatus []groupCount
	if err := database.DB.WithContext(ctx).Model(&model.Submission{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, storageFailed("Failed to load statistics.", err)
	}

	result := &FeedbackCounts{}
	for _, item := range byStatus {
		result.Total += item.Count
		switch model.Status(item.Status) {
		case model.StatusNew:
			result.New = item.Count
		case model.StatusInProgress:
			result.InProgress = item.Count
		case model.StatusResolved:
			result.Resolved = item.Count
		case model.StatusTesting:
			result.Testing = item.Count
		case model.StatusWontFix:
			result.WontFix = item.Count
		}
	}

	db := database.DB.WithContext(ctx).Model(&model.Submission{})
	if err := db.Session(&gorm.Session{}).Where("type = ?", model.TypeComment).Count(&result.Comments).Error; err != nil {
		return nil, storageFailed("Failed to load statistics.", err)
	}
	if err := db.Session(&gorm.Session{}).Where("type = ?", model.TypeBug).Count(&result.Bugs).Error; err != nil {
		return nil, storageFailed("Failed to load statistics.", err)
	}
	return result, nil
}

// Trend 统计时间范围内每个时间点的提交数和解决数
func (s *StatisticsService) Trend(ctx context.Context, start, end time.Time, dimension TimeDimension) ([]TrendPoint, error) {
	if end.Before(start) {
		return nil, Validation("End time must be after start time.")
	}

	var rows []model.Submission
	if err := database.DB.WithContext(ctx).Model(&model.Submission{}).
		Select("id", "created_at", "resolved_at", "status").
		Where("created_at BETWEEN ? AND ?", start, end).
		Or("resolved_at BETWEEN ? AND ?", start, end).
		Find(&rows).Error; err != nil {
		return nil, storageFailed("Failed to load statistics.", err)
	}

	// 分组在内存中完成，不依赖数据库的日期函数
	layout := dimension.layout()
	buckets := make(map[string]*TrendPoint)
	bucket := func(t time.Time) *TrendPoint {
		key := t.Format(layout)
		p, ok := buckets[key]
		if !ok {
			p = &TrendPoint{TimePoint: key}
			buckets[key] = p
		}
		return p
	}
	for _, row := range rows {
		if !row.CreatedAt.Before(start) && !row.CreatedAt.After(end) {
			bucket(row.CreatedAt).Submitted++
		}
		if row.ResolvedAt != nil && row.Status == model.StatusResolved &&
			!row.ResolvedAt.Before(start) && !row.ResolvedAt.After(end) {
			bucket(*row.ResolvedAt).Resolved++
		}
	}

	points := make([]TrendPoint, 0, len(buckets))
	for _, p := range buckets {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].TimePoint < points[j].TimePoint })
	return points, nil
}
