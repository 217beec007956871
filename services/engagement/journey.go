// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engagement

// Bucket is one of the five coarse journey groupings shown on the client
// dashboard.
type Bucket string

const (
	BucketDiscovery   Bucket = "discovery"
	BucketSaved       Bucket = "saved"
	BucketShortlisted Bucket = "shortlisted"
	BucketWaitlist    Bucket = "waitlist"
	BucketChosen      Bucket = "chosen"
)

// Buckets returns the five journey buckets in dashboard order.
func Buckets() []Bucket {
	return []Bucket{BucketDiscovery, BucketSaved, BucketShortlisted, BucketWaitlist, BucketChosen}
}

// Relationship is one trainer relationship as the aggregator sees it:
// the engagement stage plus the external waitlist-membership predicate.
type Relationship struct {
	TrainerID  string
	Stage      Stage
	OnWaitlist bool
}

// bucketByStage is the fixed stage→bucket lookup. Stages absent here
// (declined, declined_dismissed, anything unknown) default to discovery.
var bucketByStage = map[Stage]Bucket{
	StageBrowsing:            BucketDiscovery,
	StageLiked:               BucketSaved,
	StageShortlisted:         BucketShortlisted,
	StageGettingToKnow:       BucketShortlisted,
	StageDiscoveryInProgress: BucketShortlisted,
	StageDiscoveryCompleted:  BucketShortlisted,
	StageAgreed:              BucketChosen,
	StagePaymentPending:      BucketChosen,
	StageActiveClient:        BucketChosen,
}

// BucketFor maps one relationship to its single journey bucket. An
// active waitlist always wins over the stage mapping.
func BucketFor(rel Relationship) Bucket {
	if rel.OnWaitlist {
		return BucketWaitlist
	}
	if b, ok := bucketByStage[rel.Stage]; ok {
		return b
	}
	return BucketDiscovery
}

// JourneyCounts rolls the full relationship set up into per-bucket
// counts. Every relationship lands in exactly one bucket, so the counts
// always sum to len(rels). Recomputation is total; there is no
// incremental path.
func JourneyCounts(rels []Relationship) map[Bucket]int {
	counts := make(map[Bucket]int, 5)
	for _, b := range Buckets() {
		counts[b] = 0
	}
	for _, rel := range rels {
		counts[BucketFor(rel)]++
	}
	return counts
}

// TrainersForBucket returns the trainer ids currently in the bucket, in
// input order.
func TrainersForBucket(rels []Relationship, bucket Bucket) []string {
	var ids []string
	for _, rel := range rels {
		if BucketFor(rel) == bucket {
			ids = append(ids, rel.TrainerID)
		}
	}
	return ids
}
