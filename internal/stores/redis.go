package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MrEthical07/authcore/internal"
	"github.com/redis/go-redis/v9"
)

const (
	challengeRecordVersion1 = 1

	// ExpiredGrace keeps expired records in Redis long enough to report
	// ErrChallengeExpired instead of ErrChallengeNotFound.
	ExpiredGrace = time.Minute

	maxConsumeRetries = 4
)

// RedisChallengeStore keeps challenges in Redis as versioned binary records.
type RedisChallengeStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
	digits int
}

type challengeRecord struct {
	createdAt  int64
	expiresAt  int64
	secretHash [32]byte
	subject    string
	payload    string
}

// NewRedisChallengeStore returns a store writing keys as "<prefix>:<id>".
func NewRedisChallengeStore(
	redisClient redis.UniversalClient,
	prefix string,
	now func() time.Time,
	digits int,
) *RedisChallengeStore {
	if prefix == "" {
		prefix = "acch"
	}
	if now == nil {
		now = time.Now
	}
	return &RedisChallengeStore{
		redis:  redisClient,
		prefix: prefix,
		now:    now,
		digits: normalizeDigits(digits),
	}
}

func (s *RedisChallengeStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisChallengeStore) Create(
	ctx context.Context,
	subject string,
	ttl time.Duration,
	payload string,
) (string, string, error) {
	if ttl <= 0 {
		return "", "", errors.New("challenge ttl must be > 0")
	}

	secret, err := internal.NewOTP(s.digits)
	if err != nil {
		return "", "", err
	}

	now := s.now()
	record := &challengeRecord{
		createdAt:  now.UnixNano(),
		expiresAt:  now.Add(ttl).UnixNano(),
		secretHash: internal.HashSecret(secret),
		subject:    subject,
		payload:    payload,
	}
	encoded, err := encodeChallengeRecord(record)
	if err != nil {
		return "", "", err
	}

	for attempt := 0; attempt < 3; attempt++ {
		id, err := internal.NewChallengeID()
		if err != nil {
			return "", "", err
		}
		ok, err := s.redis.SetNX(ctx, s.key(id), encoded, ttl+ExpiredGrace).Result()
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrChallengeBackend, err)
		}
		if ok {
			return id, secret, nil
		}
	}

	return "", "", errors.New("challenge id collision")
}

func (s *RedisChallengeStore) Consume(ctx context.Context, id, secret, payload string) (Challenge, error) {
	key := s.key(id)

	for i := 0; i < maxConsumeRetries; i++ {
		var out Challenge
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeChallengeRecord(data)
			if err != nil {
				return err
			}
			challenge := record.challenge(id)
			if challenge.Payload != payload {
				return ErrChallengeNotFound
			}

			if challenge.Expired(s.now()) {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrChallengeExpired
			}

			if !internal.SecretMatches(secret, record.secretHash) {
				return ErrSecretMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}
			out = challenge
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil), errors.Is(err, ErrChallengeNotFound):
				return Challenge{}, ErrChallengeNotFound
			case errors.Is(err, ErrChallengeExpired), errors.Is(err, ErrSecretMismatch):
				return Challenge{}, err
			}
			return Challenge{}, fmt.Errorf("%w: %v", ErrChallengeBackend, err)
		}
		return out, nil
	}

	// Every retry lost the race to a concurrent writer on the same id.
	return Challenge{}, ErrChallengeNotFound
}

func (r *challengeRecord) challenge(id string) Challenge {
	return Challenge{
		ID:        id,
		Subject:   r.subject,
		Payload:   r.payload,
		CreatedAt: time.Unix(0, r.createdAt),
		ExpiresAt: time.Unix(0, r.expiresAt),
	}
}

func encodeChallengeRecord(record *challengeRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.createdAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.expiresAt); err != nil {
		return nil, err
	}
	buf.Write(record.secretHash[:])

	if err := writeString(&buf, record.subject); err != nil {
		return nil, err
	}
	if err := writeString(&buf, record.payload); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeChallengeRecord(data []byte) (*challengeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != challengeRecordVersion1 {
		return nil, errors.New("invalid challenge record version")
	}

	record := &challengeRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.createdAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.expiresAt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.secretHash[:]); err != nil {
		return nil, err
	}

	if record.subject, err = readString(reader); err != nil {
		return nil, err
	}
	if record.payload, err = readString(reader); err != nil {
		return nil, err
	}

	return record, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > 65535 {
		return errors.New("challenge field length exceeded")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readString(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
