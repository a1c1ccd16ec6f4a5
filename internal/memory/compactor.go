package memory

import (
	"io"
	"log"
	"os"
	"sort"
)

var compactionLogger *log.Logger = log.New(io.Discard, "", 0)

func init() {
	if os.Getenv("SITEWALK_DEBUG_COMPACTION") == "1" {
		compactionLogger = log.New(os.Stdout, "[compaction] ", log.Ltime|log.Lmsgprefix)
	}
}

// Compaction configuration. A batch whose utilization drops below the
// threshold (a layer that lost most of its markers, or was hidden) is
// reallocated at the smallest bucket that fits it. No more than the
// configured number of batches are shrunk per frame.
const (
	DefragEnableCompaction = true
	DefragThreshold        = 0.25 // 25%
	DefragMaxPerFrame      = 1
)

// ScanForCompaction identifies sparse batches that would shrink to a smaller
// bucket, lowest utilization first.
func (c *Controller) ScanForCompaction() []LayerID {
	if !DefragEnableCompaction {
		return nil
	}

	var candidates []LayerID
	for _, id := range c.drawOrder() {
		batch := c.batches[id]
		util := batch.utilization()
		if util >= DefragThreshold {
			compactionLogger.Printf("layer %q - TOO DENSE (%.1f%% util)", id, util*100)
			continue
		}
		if capacityFor(batch.count) >= batch.capacity {
			compactionLogger.Printf("layer %q - already minimal (%.1f%% util, %s)", id, util*100, batch.bucket())
			continue
		}
		candidates = append(candidates, id)
		compactionLogger.Printf("layer %q - CANDIDATE (%.1f%% util, %d/%d vertices)", id, util*100, batch.count, batch.capacity)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return c.batches[candidates[i]].utilization() < c.batches[candidates[j]].utilization()
	})
	return candidates
}

// TryCompaction shrinks up to DefragMaxPerFrame sparse batches. Shrinking
// discards a batch's contents, so the returned layers must be re-uploaded;
// they draw nothing until then.
func (c *Controller) TryCompaction() []LayerID {
	candidates := c.ScanForCompaction()
	if len(candidates) > DefragMaxPerFrame {
		candidates = candidates[:DefragMaxPerFrame]
	}
	for _, id := range candidates {
		batch := c.batches[id]
		c.resize(id, batch, capacityFor(batch.count))
		batch.count = 0
		c.stats.ShrinkEvents++
	}
	return candidates
}
