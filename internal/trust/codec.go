package trust

import (
	"encoding/json"
	"fmt"

	"github.com/dep2p/go-introducer/internal/core/storage/engine"
	"github.com/dep2p/go-introducer/pkg/types"
)

func decodeIdentity(data []byte, out *types.Identity) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: identity: %v", engine.ErrCorrupted, err)
	}
	return nil
}
