package model

// VocabularyItem 词汇条目，由内容提取流水线写入，调度器只读
// swagger:model VocabularyItem
type VocabularyItem struct {
	UUIDBase
	Word        string `gorm:"size:255;not null" json:"word"`
	Translation string `gorm:"size:255" json:"translation"`
	Example     string `gorm:"type:text" json:"example"`
	AudioURL    string `gorm:"size:512" json:"audioUrl,omitempty"`
	Language    string `gorm:"size:10;index" json:"language"`
}

func (VocabularyItem) TableName() string {
	return "vocabulary_items"
}

// StructureItem 语法/句型条目
// swagger:model StructureItem
type StructureItem struct {
	UUIDBase
	Pattern     string `gorm:"size:255;not null" json:"pattern"`
	Explanation string `gorm:"type:text" json:"explanation"`
	Example     string `gorm:"type:text" json:"example"`
	Language    string `gorm:"size:10;index" json:"language"`
}

func (StructureItem) TableName() string {
	return "structure_items"
}
