package storage

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"clinic-admin/internal/config"
	"clinic-admin/internal/domain"
	"clinic-admin/internal/identity"
)

// pathTag is the fixed first segment of every signable attachment path:
// attachments/<conversationID>/<messageID>/<file>.
const pathTag = "attachments"

// AttachmentService validates attachment paths, authorizes the caller
// against the owning conversation, and issues signed URLs through the
// privileged storage credential.
type AttachmentService struct {
	exchange     identity.TokenExchanger
	participants domain.ParticipantRepository
	memberships  domain.MembershipRepository
	signer       domain.ObjectSigner

	bucket         string
	allowAnyBucket bool

	logger *slog.Logger
}

// NewAttachmentService creates the attachment capability broker.
func NewAttachmentService(
	cfg *config.StorageConfig,
	exchange identity.TokenExchanger,
	participants domain.ParticipantRepository,
	memberships domain.MembershipRepository,
	signer domain.ObjectSigner,
	logger *slog.Logger,
) *AttachmentService {
	return &AttachmentService{
		exchange:       exchange,
		participants:   participants,
		memberships:    memberships,
		signer:         signer,
		bucket:         cfg.AttachmentsBucket,
		allowAnyBucket: cfg.AllowAnyBucket,
		logger:         logger,
	}
}

// SignedAttachment is an issued capability. It is never persisted; a new
// one is generated per request.
type SignedAttachment struct {
	Bucket    string
	Path      string
	SignedURL string
	ExpiresIn int
}

// Sign validates the request, authorizes the caller, and issues a signed
// URL for the attachment. expiresIn is clamped into
// [SignedURLMinTTL, SignedURLMaxTTL] seconds; nil or non-finite values fall
// back to the default TTL.
//
// The broker does not accept anonymous or bridge callers: a valid bearer
// credential is always required.
func (s *AttachmentService) Sign(ctx context.Context, bearer, bucket, path string, expiresIn *float64) (*SignedAttachment, error) {
	if bucket == "" || path == "" {
		return nil, domain.ErrValidation("bucket and path are required")
	}
	if !s.allowAnyBucket && bucket != s.bucket {
		return nil, domain.ErrValidation("signing is restricted to bucket %q", s.bucket)
	}

	conversationID, err := parseAttachmentPath(path)
	if err != nil {
		return nil, err
	}

	user, err := s.exchange.UserFromToken(ctx, bearer)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return nil, domain.ErrUnauthenticated("invalid or missing token")
		}
		return nil, err
	}

	if err := s.authorize(ctx, user.ID, conversationID); err != nil {
		return nil, err
	}

	ttl := clampTTL(expiresIn)

	signed, err := s.signer.SignObject(ctx, bucket, path, ttl)
	if err != nil {
		// Never forward signer errors: they can carry credential detail.
		s.logger.Error("signing failed", "bucket", bucket, "path", path, "error", err)
		return nil, domain.ErrUpstream("failed to create signed URL")
	}

	return &SignedAttachment{
		Bucket:    bucket,
		Path:      path,
		SignedURL: signed,
		ExpiresIn: ttl,
	}, nil
}

// authorize requires the caller to be a participant of the conversation, or
// to carry a superadmin role on its most recent membership. The superadmin
// bypass is deliberately coarse: it is not scoped to an account.
func (s *AttachmentService) authorize(ctx context.Context, userID, conversationID string) error {
	participant, err := s.participants.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if participant {
		return nil
	}

	role, err := s.memberships.LatestRoleForUser(ctx, userID)
	if err != nil {
		var notFound *domain.NotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		role = ""
	}
	if strings.EqualFold(role, domain.RoleSuperAdmin) {
		return nil
	}

	return domain.ErrAccessDenied("not allowed to sign this attachment")
}

// parseAttachmentPath enforces the path grammar and returns the owning
// conversation ID (the second segment). Grammar: no leading "/", no ".."
// segments, at least four non-empty "/"-separated segments, first segment
// the fixed attachments tag.
func parseAttachmentPath(path string) (conversationID string, err error) {
	if strings.HasPrefix(path, "/") || strings.Contains(path, "..") {
		return "", domain.ErrValidation("invalid path format")
	}
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) < 4 || segments[0] != pathTag {
		return "", domain.ErrValidation("invalid path format")
	}
	return segments[1], nil
}

// clampTTL maps a requested expiry to the effective TTL in seconds.
func clampTTL(expiresIn *float64) int {
	if expiresIn == nil || math.IsNaN(*expiresIn) || math.IsInf(*expiresIn, 0) {
		return config.SignedURLDefaultTTL
	}
	// Clamp in float space so values beyond int range hit the right bound.
	if *expiresIn < config.SignedURLMinTTL {
		return config.SignedURLMinTTL
	}
	if *expiresIn > config.SignedURLMaxTTL {
		return config.SignedURLMaxTTL
	}
	return int(*expiresIn)
}
