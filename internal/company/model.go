package company

import (
	"time"
)

// Company 是 companies 表的 GORM 模型。
type Company struct {
	ID      string `gorm:"primaryKey;size:36"`
	Name    string `gorm:"size:128;not null"`
	CNPJ    string `gorm:"uniqueIndex;size:32;not null"` // 法人识别号
	Phone   string `gorm:"size:32"`
	Address Address `gorm:"embedded;embeddedPrefix:addr_"`
	Active  bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Address 公司地址（打平存储）。
type Address struct {
	Street   string `gorm:"size:128" json:"street"`
	Number   string `gorm:"size:16" json:"number"`
	District string `gorm:"size:64" json:"district"`
	City     string `gorm:"size:64" json:"city"`
	State    string `gorm:"size:32" json:"state"`
	ZipCode  string `gorm:"size:16" json:"zip_code"`
}
