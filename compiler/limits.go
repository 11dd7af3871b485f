package compiler

// MaxLocals is the number of local-variable slots a single procedure
// may declare (parameters plus body-start defines), matching the
// 8-bit LocalId operand width.
const MaxLocals = 256

// MaxJumpTarget is the largest absolute byte offset a Jump or
// JumpFalse can address, matching the 3-byte operand width used for
// branch targets.
const MaxJumpTarget = 1<<24 - 1
