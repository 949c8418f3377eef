package puzzle

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dep2p/go-introducer/pkg/types"
	"lukechampine.com/blake3"
)

const (
	requestScheme  = "intro"
	solutionScheme = "solution"
	dayLayout      = "2006-01-02"
)

// RequestAddress 身份在某天发布第 index 个谜题的地址
//
//	intro/<identity>/<yyyy-mm-dd>/<index>
func RequestAddress(id types.IdentityID, day time.Time, index int) types.Address {
	return types.Address(fmt.Sprintf("%s/%s/%s/%d", requestScheme, id, day.UTC().Format(dayLayout), index))
}

// SolutionAddress 谜题解答的上传地址
//
// 地址只取决于谜题的日期、ID 和解答本身，发布者据此检查解答是否存在，
// 重新上传同一解答总是落在同一地址。
//
//	solution/<yyyy-mm-dd>/<blake3(id \x00 solution)>
func SolutionAddress(p *types.Puzzle, solution string) types.Address {
	h := blake3.New(32, nil)
	_, _ = h.Write([]byte(p.ID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(solution))
	return types.Address(fmt.Sprintf("%s/%s/%s", solutionScheme, p.Day().Format(dayLayout), hex.EncodeToString(h.Sum(nil))))
}
