package models

// Tag labels any number of posts. Names are unique.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Posts []Post `gorm:"many2many:post_tags;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"posts,omitempty"`
}

// PostIDs returns the ids of the loaded posts.
func (t Tag) PostIDs() []uint {
	ids := make([]uint, 0, len(t.Posts))
	for _, p := range t.Posts {
		ids = append(ids, p.ID)
	}
	return ids
}

// PostTag is the join row between Post and Tag.
type PostTag struct {
	PostID uint `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	TagID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"tag_id"`
}

// TableName returns the database table name for PostTag.
func (PostTag) TableName() string {
	return "post_tags"
}
