package session

import (
	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/services/interaction"
)

// GestureState describes the editor after a gesture event.
type GestureState struct {
	State  interaction.State
	ItemID string
	Region geometry.CropRegion
}

// BeginGesture starts a move or resize on the selected item.
func (s *Store) BeginGesture(id string, handle interaction.Handle, pointer interaction.Point) (GestureState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return GestureState{}, err
	}
	if sess.selectedID == "" {
		return GestureState{}, ErrNoSelection
	}
	_, item := sess.find(sess.selectedID)
	if item == nil {
		return GestureState{}, ErrItemNotFound
	}
	if !item.Croppable() {
		return GestureState{}, ErrNotCroppable
	}

	if sess.gesture != nil && sess.gesture.controller.State() != interaction.Idle {
		return GestureState{}, interaction.ErrGestureActive
	}

	itemID := item.ID
	controller := interaction.NewController(func(region geometry.CropRegion) {
		s.commitGesture(sess, itemID, region)
	})
	if err := controller.Begin(handle, pointer, *item.Crop, sess.settings.AspectRatio); err != nil {
		return GestureState{}, err
	}

	sess.gesture = &gesture{itemID: itemID, controller: controller}
	return GestureState{State: controller.State(), ItemID: itemID, Region: controller.Region()}, nil
}

// MoveGesture feeds a pointer move to the active gesture. Without one it is
// a no-op that reports the idle state.
func (s *Store) MoveGesture(id string, pointer interaction.Point, container interaction.Size) (GestureState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return GestureState{}, err
	}
	if sess.gesture == nil {
		return GestureState{State: interaction.Idle}, nil
	}

	region, _ := sess.gesture.controller.Move(pointer, container)
	return GestureState{
		State:  sess.gesture.controller.State(),
		ItemID: sess.gesture.itemID,
		Region: region,
	}, nil
}

// EndGesture releases the pointer and commits the region to the item the
// gesture started on.
func (s *Store) EndGesture(id string) (GestureState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return GestureState{}, err
	}
	if sess.gesture == nil {
		return GestureState{State: interaction.Idle}, nil
	}

	g := sess.gesture
	sess.gesture = nil
	region, _ := g.controller.End()
	return GestureState{State: interaction.Idle, ItemID: g.itemID, Region: region}, nil
}

// commitGesture runs with s.mu held, from the controller's commit callback.
func (s *Store) commitGesture(sess *session, itemID string, region geometry.CropRegion) {
	_, item := sess.find(itemID)
	if item == nil || !item.Croppable() {
		return
	}
	s.applyCrop(item, region)
	s.touch(sess)
}
