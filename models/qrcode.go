package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type QRCodeType string

const (
	QRCodeTypeURL     QRCodeType = "url"
	QRCodeTypeText    QRCodeType = "text"
	QRCodeTypeContact QRCodeType = "contact"
)

// QRCode is one generated code. The printed image encodes the public
// redirect URL for ID, never Content itself, so scans always pass through
// the tracker.
type QRCode struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      bson.ObjectID `bson:"userId,omitempty" json:"userId"`
	Content     string        `bson:"content" json:"content"`
	Type        QRCodeType    `bson:"type" json:"type"`
	Size        int           `bson:"size" json:"size"`
	Color       string        `bson:"color" json:"color"` // foreground, hex without '#'
	ScanCount   int64         `bson:"scanCount" json:"scanCount"`
	LastScanned *time.Time    `bson:"lastScanned,omitempty" json:"lastScanned"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
}

// ScanUpdate is the single atomic update applied on every resolution:
// a native $inc so concurrent scans never lose counts.
func ScanUpdate(now time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"scanCount": 1},
		"$set": bson.M{"lastScanned": now},
	}
}
