package admin

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/api"
	"github.com/DroppedLink/feedback/internal/service"
)

const timeLayout = "2006-01-02 15:04:05"

// GetFeedbackCounts 反馈概览计数
func GetFeedbackCounts(c *gin.Context) {
	counts, err := service.Statistics.Counts(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, counts)
}

// GetFeedbackTrend 按时间维度统计提交数和解决数
func GetFeedbackTrend(c *gin.Context) {
	dimension := c.DefaultQuery("dimension", "day") // 默认按天统计

	var timeDimension service.TimeDimension
	switch dimension {
	case "month":
		timeDimension = service.DimensionMonth
	case "year":
		timeDimension = service.DimensionYear
	default:
		dimension = "day"
		timeDimension = service.DimensionDay
	}

	// 默认统计最近30天
	startTime := time.Now().AddDate(0, 0, -30)
	endTime := time.Now()
	var err error
	if s := c.Query("start_time"); s != "" {
		if startTime, err = time.ParseInLocation(timeLayout, s, time.Local); err != nil {
			api.BadRequest(c, "Invalid start_time, expected format "+timeLayout+".")
			return
		}
	}
	if s := c.Query("end_time"); s != "" {
		if endTime, err = time.ParseInLocation(timeLayout, s, time.Local); err != nil {
			api.BadRequest(c, "Invalid end_time, expected format "+timeLayout+".")
			return
		}
	}

	points, err := service.Statistics.Trend(c.Request.Context(), startTime, endTime, timeDimension)
	if err != nil {
		api.Fail(c, err)
		return
	}

	api.OK(c, gin.H{
		"points": points,
		"query": gin.H{
			"dimension":  dimension,
			"start_time": startTime.Format(timeLayout),
			"end_time":   endTime.Format(timeLayout),
		},
	})
}
