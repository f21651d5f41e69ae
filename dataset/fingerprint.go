package dataset

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Fingerprint はスキーマと全セル内容のSHA-256ハッシュを返す。
// 同一データには常に同一の指紋が得られるため、後からどのデータで
// どの指標が得られたかを照合できる
func Fingerprint(t *Table) string {
	h := sha256.New()

	for _, col := range t.schema.Columns {
		h.Write([]byte(col.Name))
		h.Write([]byte{byte(col.Type)})
	}

	var buf [8]byte
	for _, row := range t.rows {
		for _, v := range row {
			switch {
			case v.Missing:
				h.Write([]byte{0xff})
			case v.Token != "":
				h.Write([]byte{0x01})
				h.Write([]byte(v.Token))
			default:
				h.Write([]byte{0x02})
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.Num))
				h.Write(buf[:])
			}
		}
		h.Write([]byte{0x00})
	}

	return hex.EncodeToString(h.Sum(nil))
}

// PairFingerprint は訓練・検証ペアの結合指紋を返す。
// ExperimentRunに記録され、どのデータ版で学習・評価したかを特定する
func PairFingerprint(train, validation *Table) string {
	h := sha256.New()
	h.Write([]byte(Fingerprint(train)))
	h.Write([]byte(Fingerprint(validation)))
	return hex.EncodeToString(h.Sum(nil))
}
