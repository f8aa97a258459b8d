// Package tfrecord reads and writes TFRecord container files holding
// tensorflow.Example messages with int64-list features. The message shape is
// small enough that the wire format is assembled by hand with protowire
// instead of generated code.
package tfrecord

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Feature keys, emitted in this order in every record.
const (
	StoryKey  = "story"
	QueryKey  = "query"
	AnswerKey = "answer"
)

// Example is the payload of one record: the flattened story ids, the query
// ids, and the single answer id, each an Int64List feature.
type Example struct {
	Story  []int64
	Query  []int64
	Answer []int64
}

// Marshal
// Serializes as a tensorflow.Example message: Example.features is field 1,
// Features.feature is a map<string, Feature> whose entries carry the key in
// field 1 and the Feature in field 2, and Feature.int64_list is field 3 with
// packed values in field 1. Feature order is fixed so identical examples
// serialize to identical bytes.
func (ex *Example) Marshal() []byte {
	features := appendFeature(nil, StoryKey, ex.Story)
	features = appendFeature(features, QueryKey, ex.Query)
	features = appendFeature(features, AnswerKey, ex.Answer)
	buf := protowire.AppendTag(nil, 1, protowire.BytesType)
	return protowire.AppendBytes(buf, features)
}

func appendFeature(buf []byte, key string, values []int64) []byte {
	packed := make([]byte, 0, len(values))
	for _, value := range values {
		packed = protowire.AppendVarint(packed, uint64(value))
	}
	list := protowire.AppendTag(nil, 1, protowire.BytesType)
	list = protowire.AppendBytes(list, packed)

	feature := protowire.AppendTag(nil, 3, protowire.BytesType)
	feature = protowire.AppendBytes(feature, list)

	entry := protowire.AppendTag(nil, 1, protowire.BytesType)
	entry = protowire.AppendString(entry, key)
	entry = protowire.AppendTag(entry, 2, protowire.BytesType)
	entry = protowire.AppendBytes(entry, feature)

	buf = protowire.AppendTag(buf, 1, protowire.BytesType)
	return protowire.AppendBytes(buf, entry)
}

// Unmarshal decodes a serialized tensorflow.Example back into its int64-list
// features. Features under keys other than story/query/answer are ignored.
func Unmarshal(payload []byte) (*Example, error) {
	ex := &Example{}
	features, err := consumeMessageField(payload, 1, "Example.features")
	if err != nil {
		return nil, err
	}
	for len(features) > 0 {
		entry, rest, err := consumeField(features, 1, "Features.feature")
		if err != nil {
			return nil, err
		}
		features = rest
		key, feature, err := consumeMapEntry(entry)
		if err != nil {
			return nil, err
		}
		values, err := consumeInt64List(feature)
		if err != nil {
			return nil, err
		}
		switch key {
		case StoryKey:
			ex.Story = values
		case QueryKey:
			ex.Query = values
		case AnswerKey:
			ex.Answer = values
		}
	}
	return ex, nil
}

// consumeMessageField expects the buffer to hold exactly one length-delimited
// field with the given number and returns its contents.
func consumeMessageField(buf []byte, want protowire.Number,
	what string) ([]byte, error) {
	value, rest, err := consumeField(buf, want, what)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("tfrecord: trailing bytes after %s", what)
	}
	return value, nil
}

func consumeField(buf []byte, want protowire.Number,
	what string) (value []byte, rest []byte, err error) {
	num, typ, n := protowire.ConsumeTag(buf)
	if n < 0 {
		return nil, nil, fmt.Errorf("tfrecord: bad tag in %s", what)
	}
	if num != want || typ != protowire.BytesType {
		return nil, nil, fmt.Errorf(
			"tfrecord: unexpected field %d (wire type %d) in %s",
			num, typ, what)
	}
	value, m := protowire.ConsumeBytes(buf[n:])
	if m < 0 {
		return nil, nil, fmt.Errorf("tfrecord: truncated %s", what)
	}
	return value, buf[n+m:], nil
}

func consumeMapEntry(entry []byte) (key string, feature []byte, err error) {
	keyBytes, rest, err := consumeField(entry, 1, "feature entry key")
	if err != nil {
		return "", nil, err
	}
	feature, err = consumeMessageField(rest, 2, "feature entry value")
	if err != nil {
		return "", nil, err
	}
	return string(keyBytes), feature, nil
}

// consumeInt64List unwraps Feature.int64_list and returns its values,
// accepting both packed and unpacked encodings.
func consumeInt64List(feature []byte) ([]int64, error) {
	list, err := consumeMessageField(feature, 3, "Feature.int64_list")
	if err != nil {
		return nil, err
	}
	values := make([]int64, 0, len(list))
	for len(list) > 0 {
		num, typ, n := protowire.ConsumeTag(list)
		if n < 0 || num != 1 {
			return nil, fmt.Errorf("tfrecord: bad Int64List field")
		}
		list = list[n:]
		switch typ {
		case protowire.BytesType:
			packed, m := protowire.ConsumeBytes(list)
			if m < 0 {
				return nil, fmt.Errorf("tfrecord: truncated Int64List")
			}
			list = list[m:]
			for len(packed) > 0 {
				value, k := protowire.ConsumeVarint(packed)
				if k < 0 {
					return nil, fmt.Errorf("tfrecord: truncated Int64List")
				}
				values = append(values, int64(value))
				packed = packed[k:]
			}
		case protowire.VarintType:
			value, m := protowire.ConsumeVarint(list)
			if m < 0 {
				return nil, fmt.Errorf("tfrecord: truncated Int64List")
			}
			values = append(values, int64(value))
			list = list[m:]
		default:
			return nil, fmt.Errorf(
				"tfrecord: unexpected Int64List wire type %d", typ)
		}
	}
	return values, nil
}
