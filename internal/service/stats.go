package service

import "skillforge_backend/internal/model"

// CourseExp 已通过课程的经验值及其技能标签
type CourseExp struct {
	CourseID   uint
	ExpPoints  int
	SkillCodes []string
}

func CourseExpFrom(c model.Course) CourseExp {
	return CourseExp{CourseID: c.ID, ExpPoints: c.ExpPoints, SkillCodes: c.SkillCodes()}
}

// ComputeStats 从零计算学员各技能经验：所有已知代码置 0，
// 每门已通过课程的经验值完整计入其每一个标签（不均分）
func ComputeStats(knownCodes []string, passed []CourseExp) map[string]int {
	stats := make(map[string]int, len(knownCodes))
	for _, code := range knownCodes {
		stats[code] = 0
	}
	seen := make(map[uint]struct{}, len(passed))
	for _, c := range passed {
		if _, dup := seen[c.CourseID]; dup {
			continue
		}
		seen[c.CourseID] = struct{}{}
		if c.ExpPoints <= 0 {
			continue
		}
		tagged := make(map[string]struct{}, len(c.SkillCodes))
		for _, code := range c.SkillCodes {
			if _, ok := tagged[code]; ok {
				continue
			}
			tagged[code] = struct{}{}
			stats[code] += c.ExpPoints
		}
	}
	return stats
}

// Qualifies 每一项要求都满足才算获得；无要求的成就视为满足
func Qualifies(stats map[string]int, a *model.Achievement) bool {
	for _, req := range a.Requirements {
		if stats[req.SkillCode] < req.Threshold {
			return false
		}
	}
	return true
}

// EvaluateAchievements 从候选成就中筛出当前统计已满足的
func EvaluateAchievements(stats map[string]int, candidates []model.Achievement) []model.Achievement {
	var earned []model.Achievement
	for i := range candidates {
		if Qualifies(stats, &candidates[i]) {
			earned = append(earned, candidates[i])
		}
	}
	return earned
}
