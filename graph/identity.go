package graph

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"
)

// hmsg1 is the fixed domain separator prefixed to every hashed message-id
// payload, pinning the hash to this identity scheme (HMSG1 = "hashed
// message, version 1") so that a future revision of the derivation rules
// cannot collide with ids produced by this one.
const hmsg1 = "HMSG1"

func sha256MsgID(payload []byte) string {
	sum := sha256.Sum256(payload)
	return "msg:" + hex.EncodeToString(sum[:])
}

// DeriveUserMessageID computes the deterministic id for a user-role
// message written at a given step of a given run.
//
// Payload: "HMSG1" || runID (16 raw bytes) || BE-uint32(stepIndex) ||
// "user" || BE-uint32(0).
func DeriveUserMessageID(runID uuid.UUID, stepIndex uint32) string {
	payload := make([]byte, 0, len(hmsg1)+16+4+4+4)
	payload = append(payload, hmsg1...)
	runBytes := runID
	payload = append(payload, runBytes[:]...)
	payload = appendUint32(payload, stepIndex)
	payload = append(payload, "user"...)
	payload = appendUint32(payload, 0)
	return sha256MsgID(payload)
}

// DeriveRoleMessageID computes the deterministic id for an assistant- or
// system-role message produced by a given task.
//
// Payload: "HMSG1" || UTF8(taskID) || 0x00 || ASCII(role) ||
// BE-uint32(0).
func DeriveRoleMessageID(taskID string, role Role) string {
	payload := make([]byte, 0, len(hmsg1)+len(taskID)+1+len(role)+4)
	payload = append(payload, hmsg1...)
	payload = append(payload, taskID...)
	payload = append(payload, 0x00)
	payload = append(payload, string(role)...)
	payload = appendUint32(payload, 0)
	return sha256MsgID(payload)
}

// DeriveToolMessageID computes the id for the tool-role message reporting
// the result of a tool call.
func DeriveToolMessageID(toolCallID string) string {
	return "tool:" + toolCallID
}

// DeriveToolCancelledMessageID computes the id for the tool-role message
// reporting that a pending tool call was cancelled rather than executed.
func DeriveToolCancelledMessageID(toolCallID string) string {
	return "tool:" + toolCallID + ":cancelled"
}

// DeriveTaskID computes the deterministic per-(run, attempt, step, node)
// task identifier the scheduler assigns to every node invocation.
func DeriveTaskID(runID uuid.UUID, attemptID uuid.UUID, stepIndex uint32, nodeID string) string {
	h := sha256.New()
	runBytes := runID
	attemptBytes := attemptID
	h.Write(runBytes[:])
	h.Write(attemptBytes[:])
	h.Write(appendUint32(nil, stepIndex))
	h.Write([]byte(nodeID))
	return "task:" + hex.EncodeToString(h.Sum(nil))
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
