package models

import (
	"time"
)

// DocumentRecord 是文档服务持久化的文档元数据。
// 原始文件与抽取文本保存在对象存储中，这里只记录键。
type DocumentRecord struct {
	ID          string    `bson:"_id" json:"id"`
	FileName    string    `bson:"file_name" json:"file_name"`
	ContentType string    `bson:"content_type" json:"content_type"`
	SizeBytes   int64     `bson:"size_bytes" json:"size_bytes"`
	PageCount   int       `bson:"page_count" json:"page_count"`
	RawObject   string    `bson:"raw_object" json:"-"`
	TextObject  string    `bson:"text_object" json:"-"`
	UploadedAt  time.Time `bson:"uploaded_at" json:"uploaded_at"`
}
