package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/types"
)

var Export = new(ExportService)

type ExportService struct{}

var exportHeader = []string{
	"ID", "User", "Type", "Context ID", "Subject", "Message", "Status",
	"Admin Reply", "Resolution Notes", "Created At", "Resolved At",
}

const exportTimeLayout = "2006-01-02 15:04:05"

// Filename 导出文件名，按日期区分
func (s *ExportService) Filename(now time.Time) string {
	return "user-feedback-export-" + now.Format("2006-01-02") + ".csv"
}

// WriteCSV 按筛选条件导出，最多 MaxListLimit 条
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, q types.SubmissionQuery) error {
	q.Limit = MaxListLimit
	q.Offset = 0
	q.Page = 0
	items, _, err := Submission.List(ctx, &q)
	if err != nil {
		return err
	}

	// 添加BOM头，Excel 打开时识别为 UTF-8
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for i := range items {
		if err := writer.Write(exportRecord(&items[i])); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func exportRecord(sub *model.Submission) []string {
	user := "Unknown"
	if sub.User.ID != 0 {
		user = sub.User.Username
	}
	typ := ""
	if sub.Type != nil {
		typ = string(*sub.Type)
	}
	resolvedAt := ""
	if sub.ResolvedAt != nil {
		resolvedAt = sub.ResolvedAt.Format(exportTimeLayout)
	}
	return []string{
		strconv.FormatUint(uint64(sub.ID), 10),
		user,
		typ,
		sub.ContextID,
		sub.Subject,
		sub.Message,
		string(sub.Status),
		deref(sub.AdminReply),
		deref(sub.ResolutionNotes),
		sub.CreatedAt.Format(exportTimeLayout),
		resolvedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
