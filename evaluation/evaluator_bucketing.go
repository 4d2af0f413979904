package evaluation

import (
	"crypto/sha1" //nolint:gosec // SHA1 is cryptographically weak but we are not using it to hash any credentials
	"encoding/hex"
	"io"
	"strconv"

	"github.com/launchdarkly/go-sdk-common/v3/ldattr"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/ldmodel"
)

const longScale = float32(0xFFFFFFFFFFFFFFF)

// A non-error condition that caused a bucket value to be unavailable or an experiment to be
// inapplicable. These conditions do not make the evaluation fail; they produce a bucket value
// of zero, or exclude the context from an experiment, as appropriate.
type bucketingFailureReason int

const (
	bucketingFailureContextLacksDesiredKind bucketingFailureReason = iota + 1

	// The bucketBy attribute had no value, or a value that is not a string or integer.
	bucketingFailureAttributeValueInvalid

	// The context that is being bucketed for an experiment is anonymous; such contexts are
	// excluded from experiment analysis, although the rollout still determines a variation.
	bucketingFailureContextExcludedFromExperiment
)

// Computes the result of a VariationOrRollout. For a simple variation it returns the index;
// for a rollout or experiment, it computes the bucket value and walks the weighted
// variations. The inExperiment return value is true only if this was an experiment and the
// context is a fully-tracked experiment participant.
func (es *evaluationScope) variationOrRolloutResult(
	vr ldmodel.VariationOrRollout, key, salt string) (variationIndex int, inExperiment bool, err error) {
	if vr.Variation.IsDefined() {
		return vr.Variation.IntValue(), false, nil
	}
	if len(vr.Rollout.Variations) == 0 {
		// This is an error (malformed flag); either Variation or a non-empty Rollout must
		// be specified.
		return -1, false, emptyRolloutError{}
	}

	isExperiment := vr.Rollout.IsExperiment()
	bucketBy := ldattr.Ref{}
	if !isExperiment {
		bucketBy = vr.Rollout.BucketBy // experiments always bucket by the context key
	}

	bucketVal, failReason, err := es.computeBucketValue(isExperiment, vr.Rollout.Seed,
		vr.Rollout.ContextKind, key, bucketBy, salt)
	if err != nil {
		return -1, false, err
	}

	var sum float32
	for _, wv := range vr.Rollout.Variations {
		sum += float32(wv.Weight) / 100000.0
		if bucketVal < sum {
			return wv.Variation, isExperiment && !wv.Untracked && failReason == 0, nil
		}
	}

	// The context's bucket value was greater than or equal to the end of the last bucket.
	// This could happen due to a rounding error, or due to the fact that we are scaling to
	// 100000 rather than 99999, or the flag data could contain buckets that don't actually
	// add up to 100000. Rather than returning an error in this case (or changing the
	// scaling, which would potentially change the results for *all* contexts), we will
	// simply put the context in the last bucket.
	lastVariation := vr.Rollout.Variations[len(vr.Rollout.Variations)-1]
	return lastVariation.Variation, isExperiment && !lastVariation.Untracked && failReason == 0, nil
}

// Computes a bucket value in the range [0,1) for a rollout, experiment, or segment rule
// rollout. A zero bucket value together with a non-zero bucketingFailureReason means the
// value could not really be computed; callers that care (experiments) can distinguish that
// case from a real bucket value of zero.
func (es *evaluationScope) computeBucketValue(
	isExperiment bool,
	seed ldvalue.OptionalInt,
	contextKind ldcontext.Kind,
	key string,
	attr ldattr.Ref,
	salt string,
) (float32, bucketingFailureReason, error) {
	var prefix string
	if seed.IsDefined() {
		prefix = strconv.Itoa(seed.IntValue())
	} else {
		prefix = key + "." + salt
	}

	if contextKind == "" {
		contextKind = ldcontext.DefaultKind
	}
	individualContext := es.context.IndividualContextByKind(contextKind)
	if !individualContext.IsDefined() {
		return 0, bucketingFailureContextLacksDesiredKind, nil
	}

	var uValue ldvalue.Value
	if attr.IsDefined() {
		if attr.Err() != nil {
			return 0, 0, badAttrRefError(attr.String())
		}
		uValue = individualContext.GetValueForRef(attr)
	} else {
		uValue = ldvalue.String(individualContext.Key())
	}
	idHash, ok := bucketableStringValue(uValue)
	if !ok {
		return 0, bucketingFailureAttributeValueInvalid, nil
	}

	var failReason bucketingFailureReason
	if isExperiment && individualContext.Anonymous() {
		// Anonymous contexts are excluded from experiment analysis; the rollout still
		// deterministically assigns them a variation.
		failReason = bucketingFailureContextExcludedFromExperiment
	}

	h := sha1.New() //nolint:gosec // just used for insecure hashing
	_, _ = io.WriteString(h, prefix+"."+idHash)
	hash := hex.EncodeToString(h.Sum(nil))[:15]

	intVal, _ := strconv.ParseInt(hash, 16, 64)

	return float32(intVal) / longScale, failReason, nil
}

func bucketableStringValue(uValue ldvalue.Value) (string, bool) {
	if uValue.Type() == ldvalue.StringType {
		return uValue.StringValue(), true
	}
	if uValue.IsInt() {
		return strconv.Itoa(uValue.IntValue()), true
	}
	return "", false
}
