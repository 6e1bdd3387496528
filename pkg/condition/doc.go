/*
Package condition evaluates the rules that mark router choices as valid or invalid.

A Condition compares one module variable against a literal operand. The evaluator is
total: type mismatches, non-numeric operands and unknown condition types evaluate to
false instead of failing, so a misconfigured rule never interrupts playback.

Choice validity is advisory. Absence of conditions means a choice is always allowed;
otherwise every matching condition must hold (AND), regardless of the stored
condition_operator.
*/
package condition
