package srs

// Mode 练习模式
type Mode string

const (
	ModeFlashcard  Mode = "flashcard"  // 第 1 / 4 天：卡片复习
	ModeUnscramble Mode = "unscramble" // 第 2 天：句子重组
	ModeGapFill    Mode = "gapfill"    // 第 3 天：听力填空
	ModeQuiz       Mode = "quiz"       // 第 5 天：综合测验
	ModeListening  Mode = "listening"  // 第 6 天：听力选择（互动字幕）
	ModeReview     Mode = "review"     // 第 0 / 7 天：仅标准间隔复习
)

var modeByDay = map[int]Mode{
	ClassDay: ModeReview,
	1:        ModeFlashcard,
	2:        ModeUnscramble,
	3:        ModeGapFill,
	4:        ModeFlashcard,
	5:        ModeQuiz,
	6:        ModeListening,
	IdleDay:  ModeReview,
}

// ModeForDay 循环日到练习模式的固定映射，未知的日索引按空闲复习处理
func ModeForDay(cycleDay int) Mode {
	if m, ok := modeByDay[cycleDay]; ok {
		return m
	}
	return ModeReview
}

// DegradeMode 听力模式缺音频时确定性降级为综合测验
func DegradeMode(m Mode, hasAudio bool) Mode {
	if m == ModeListening && !hasAudio {
		return ModeQuiz
	}
	return m
}

// UsesStructures 卡片之外的课程模式同时抽取语法条目
func (m Mode) UsesStructures() bool {
	return m == ModeUnscramble || m == ModeGapFill
}

// IsFixedContent 测验/听力模式使用课程预生成的固定题目集，
// 不与到期条目合并
func (m Mode) IsFixedContent() bool {
	return m == ModeQuiz || m == ModeListening
}
