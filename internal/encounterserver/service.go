package encounterserver

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/encounter/internal/game/character"
	"github.com/cory-johannsen/encounter/internal/game/content"
)

// PartySource loads persisted characters by ID.
type PartySource interface {
	LoadParty(ctx context.Context, ids []int64) ([]*character.Character, error)
}

// Service implements EncounterServer over a SessionManager.
type Service struct {
	sessions *SessionManager
	library  *content.Library
	parties  PartySource // nil = only library parties may be used
	logger   *zap.Logger
}

// NewService creates a Service.
//
// Precondition: sessions and library must be non-nil.
func NewService(sessions *SessionManager, library *content.Library, parties PartySource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sessions: sessions, library: library, parties: parties, logger: logger}
}

var _ EncounterServer = (*Service)(nil)

// Start loads the requested party and starts the encounter.
func (s *Service) Start(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	encounterID, err := requireString(in, "encounter")
	if err != nil {
		return nil, toStatus(err)
	}
	party, err := s.loadParty(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	sess, res, err := s.sessions.Start(ctx, encounterID, party)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{
		"session_id": sess.ID(),
		"result":     encodeResult(res),
		"wave":       encodePartyInfo(sess.PartyInfo()),
	})
}

func (s *Service) loadParty(ctx context.Context, in *structpb.Struct) ([]*character.Character, error) {
	ids, err := int64List(in, "character_ids")
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if s.parties == nil {
			return nil, status.Error(codes.FailedPrecondition, "character persistence is not configured")
		}
		party, err := s.parties.LoadParty(ctx, ids)
		if err != nil {
			s.logger.Warn("loading party", zap.Int64s("ids", ids), zap.Error(err))
			return nil, errors.Join(ErrPartyUnavailable, err)
		}
		return party, nil
	}
	partyID, err := requireString(in, "party")
	if err != nil {
		return nil, err
	}
	def, ok := s.library.Party(partyID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "party %q not found", partyID)
	}
	return def.Characters()
}

// Submit resolves one action. Rejections are reported in the result.
func (s *Service) Submit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireString(in, "session_id")
	if err != nil {
		return nil, toStatus(err)
	}
	action, err := decodeAction(in.GetFields()["action"].GetStructValue())
	if err != nil {
		return nil, toStatus(err)
	}
	res, err := s.sessions.Submit(ctx, id, action)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"result": encodeResult(res)})
}

// Current returns the session snapshot.
func (s *Service) Current(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(in)
	if err != nil {
		return nil, err
	}
	return respond(encodeSnapshot(sess.Snapshot()))
}

// PartyInfo returns the enemy wave position.
func (s *Service) PartyInfo(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.session(in)
	if err != nil {
		return nil, err
	}
	return respond(encodePartyInfo(sess.PartyInfo()))
}

func (s *Service) session(in *structpb.Struct) (*Session, error) {
	id, err := requireString(in, "session_id")
	if err != nil {
		return nil, toStatus(err)
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, toStatus(ErrSessionNotFound)
	}
	return sess, nil
}

func respond(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, errBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, content.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrTooManySessions):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, ErrPartyUnavailable):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
